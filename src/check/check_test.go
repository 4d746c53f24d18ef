package check

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

// fakeDispatcher answers announce and peer_list calls from canned responses,
// standing in for a running cluster.
type fakeDispatcher struct {
	announcedAt []int
	announceErr error
	peerList    func(id int) (string, error)
}

func (f *fakeDispatcher) One(id int, method string, args []string) (string, error) {
	switch method {
	case "announce":
		if f.announceErr != nil {
			return "", f.announceErr
		}
		f.announcedAt = append(f.announcedAt, id)
		return "true", nil
	case "peer_list":
		return f.peerList(id)
	}
	return "", fmt.Errorf("unexpected method %s", method)
}

func testSpec(t *testing.T, nodes int) *config.ClusterSpec {
	spec := config.NewTestSpec(t, logrus.ErrorLevel)
	spec.Nodes = nodes
	spec.Settle = time.Millisecond
	return spec
}

func TestCheckAgreement(t *testing.T) {
	spec := testSpec(t, 3)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			return `["127.0.0.1:4402"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !res.Agreement {
		t.Fatalf("views should agree: %v", res.Views)
	}

	if len(res.Divergent) != 0 {
		t.Fatalf("divergent should be empty, not %v", res.Divergent)
	}

	if len(fake.announcedAt) != 1 || fake.announcedAt[0] != 2 {
		t.Fatalf("blob should be announced once at node2, not %v", fake.announcedAt)
	}

	if len(res.Views) != 3 {
		t.Fatalf("should have 3 views, not %d", len(res.Views))
	}

	if res.String() != "all peer lists consistent" {
		t.Fatalf("unexpected report: %q", res.String())
	}
}

func TestCheckDivergence(t *testing.T) {
	spec := testSpec(t, 3)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			if id == 3 {
				return `[]`, nil
			}
			return `["127.0.0.1:4401"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if res.Agreement {
		t.Fatalf("views should diverge")
	}

	if !reflect.DeepEqual(res.Divergent, []int{3}) {
		t.Fatalf("divergent should be [3], not %v", res.Divergent)
	}

	if !strings.Contains(res.String(), "node3") {
		t.Fatalf("report should name node3: %q", res.String())
	}
}

// TestCheckDeterminism runs two checkers with the same seed and no explicit
// source: both must draw the same source node and reach the same verdict.
func TestCheckDeterminism(t *testing.T) {
	spec := testSpec(t, 5)
	spec.Seed = 7

	// node1's view differs, so the verdict depends on which source was drawn
	peerList := func(id int) (string, error) {
		if id == 1 {
			return `["127.0.0.1:3401"]`, nil
		}
		return `["127.0.0.1:3402"]`, nil
	}

	first, err := NewChecker(spec, &fakeDispatcher{peerList: peerList}).Run("deadbeef", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	second, err := NewChecker(spec, &fakeDispatcher{peerList: peerList}).Run("deadbeef", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if first.Source < 1 || first.Source > spec.Nodes {
		t.Fatalf("source %d out of range", first.Source)
	}

	if first.Source != second.Source {
		t.Fatalf("same seed should draw the same source: %d != %d", first.Source, second.Source)
	}

	if !reflect.DeepEqual(first.Divergent, second.Divergent) {
		t.Fatalf("same seed should yield the same verdict: %v != %v", first.Divergent, second.Divergent)
	}
}

func TestCheckSingleNode(t *testing.T) {
	spec := testSpec(t, 1)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			return `["127.0.0.1:3401"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !res.Agreement {
		t.Fatalf("a single node trivially agrees with itself")
	}
}

func TestCheckAllEmpty(t *testing.T) {
	spec := testSpec(t, 4)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			return `[]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	// Empty everywhere means nobody indexed the blob, but the views do not
	// contradict eachother, so this counts as agreement.
	if !res.Agreement {
		t.Fatalf("all-empty views should agree")
	}
}

func TestCheckAnnounceFailure(t *testing.T) {
	spec := testSpec(t, 3)

	polled := false
	fake := &fakeDispatcher{
		announceErr: fmt.Errorf("connection refused"),
		peerList: func(id int) (string, error) {
			polled = true
			return `[]`, nil
		},
	}

	if _, err := NewChecker(spec, fake).Run("deadbeef", 1); err == nil {
		t.Fatalf("check should abort when the announce fails")
	}

	if polled {
		t.Fatalf("check should not poll after a failed announce")
	}
}

func TestCheckPollFailureDivergent(t *testing.T) {
	spec := testSpec(t, 3)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			if id == 2 {
				return "", fmt.Errorf("connection refused")
			}
			return `["127.0.0.1:3401"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(res.Divergent, []int{2}) {
		t.Fatalf("an unpollable node should be divergent, got %v", res.Divergent)
	}

	if res.Views[2] != nil {
		t.Fatalf("an unpollable node should have a nil view, not %v", res.Views[2])
	}
}

func TestCheckSourceOutOfRange(t *testing.T) {
	spec := testSpec(t, 3)

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			return `[]`, nil
		},
	}

	_, err := NewChecker(spec, fake).Run("deadbeef", 9)
	if !common.Is(err, common.Usage) {
		t.Fatalf("source out of range should be a usage error, got: %v", err)
	}
}

// TestCheckPollConvergence exercises the poll policy against a cluster whose
// views converge after a few rounds.
func TestCheckPollConvergence(t *testing.T) {
	spec := testSpec(t, 3)
	spec.WaitPolicy = WaitPoll
	spec.PollInterval = time.Millisecond
	spec.CheckTimeout = 5 * time.Second

	rounds := 0
	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			if id == 1 {
				rounds++
			}
			if rounds <= 2 && id != 1 {
				return `[]`, nil
			}
			return `["127.0.0.1:3401"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !res.Agreement {
		t.Fatalf("views should have converged: %v", res.Views)
	}

	if rounds < 3 {
		t.Fatalf("poll policy should have kept polling, saw %d rounds", rounds)
	}
}

func TestCheckPollTimeout(t *testing.T) {
	spec := testSpec(t, 3)
	spec.WaitPolicy = WaitPoll
	spec.PollInterval = time.Millisecond
	spec.CheckTimeout = 20 * time.Millisecond

	fake := &fakeDispatcher{
		peerList: func(id int) (string, error) {
			if id == 2 {
				return `[]`, nil
			}
			return `["127.0.0.1:3401"]`, nil
		},
	}

	res, err := NewChecker(spec, fake).Run("deadbeef", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if res.Agreement {
		t.Fatalf("views never converged, check should report divergence")
	}

	if !reflect.DeepEqual(res.Divergent, []int{2}) {
		t.Fatalf("divergent should be [2], not %v", res.Divergent)
	}
}
