package check

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ugorji/go/codec"
)

// Result is the outcome of one consistency check. Views holds every node's
// peer list for the blob, keyed by node identifier; a node that could not be
// polled has a nil view and appears in Divergent.
type Result struct {
	Blob      string           `json:"blob"`
	Source    int              `json:"source"`
	Views     map[int][]string `json:"views"`
	Agreement bool             `json:"agreement"`
	Divergent []int            `json:"divergent"`
}

// Marshal returns the canonical JSON encoding of the result. Map keys are
// sorted, so equal results encode to equal bytes.
func (r *Result) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal parses a Result from its canonical JSON encoding.
func (r *Result) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(r); err != nil {
		return err
	}

	return nil
}

// String renders the human-readable report: a single line on agreement, or
// one line per divergent node showing its view against the source's.
func (r *Result) String() string {
	if r.Agreement {
		return "all peer lists consistent"
	}

	b := new(bytes.Buffer)

	fmt.Fprintf(b, "peer lists diverge from node%d for blob %s\n", r.Source, r.Blob)
	for _, id := range r.Divergent {
		fmt.Fprintf(b, "  node%d: %s != %s\n",
			id, formatView(r.Views[id]), formatView(r.Views[r.Source]))
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatView(view []string) string {
	if view == nil {
		return "<no response>"
	}
	return "[" + strings.Join(view, " ") + "]"
}
