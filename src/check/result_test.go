package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultMarshal(t *testing.T) {
	res := &Result{
		Blob:   "deadbeef",
		Source: 2,
		Views: map[int][]string{
			1: {"127.0.0.1:3401"},
			2: {"127.0.0.1:3401"},
			3: {},
		},
		Agreement: false,
		Divergent: []int{3},
	}

	raw, err := res.Marshal()
	assert.NoError(t, err)

	again, err := res.Marshal()
	assert.NoError(t, err)

	// canonical encoding: same result, same bytes
	assert.Equal(t, raw, again)

	decoded := new(Result)
	assert.NoError(t, decoded.Unmarshal(raw))
	assert.Equal(t, res, decoded)
}

func TestResultReport(t *testing.T) {
	res := &Result{
		Blob:   "deadbeef",
		Source: 1,
		Views: map[int][]string{
			1: {"127.0.0.1:3401"},
			2: nil,
		},
		Agreement: false,
		Divergent: []int{2},
	}

	report := res.String()

	assert.Contains(t, report, "node2")
	assert.Contains(t, report, "<no response>")
	assert.Contains(t, report, "127.0.0.1:3401")
}
