// Package check implements the distributed consistency check: announce a
// blob at one node, wait for the announcement to propagate, then poll every
// node's view of the blob's peer list and compare them.
package check

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

// Wait policies for the propagation phase of a check.
const (
	// WaitSettle sleeps for the spec's fixed Settle duration and polls once.
	WaitSettle = "settle"

	// WaitPoll re-polls every PollInterval until two consecutive rounds are
	// identical and agree, or until CheckTimeout.
	WaitPoll = "poll"
)

// Dispatcher is the control-plane surface the checker drives.
type Dispatcher interface {
	One(id int, method string, args []string) (string, error)
}

// nodeView is one node's answer to a peer_list poll. A node that could not
// be polled, or whose answer could not be parsed, has Err set.
type nodeView struct {
	Addrs []string
	Err   error
}

// Checker runs consistency checks against a cluster. The source-node draw is
// seeded from the spec, so a seeded spec yields a reproducible check.
type Checker struct {
	spec       *config.ClusterSpec
	dispatcher Dispatcher
	rng        *rand.Rand
	logger     *logrus.Entry
}

// NewChecker returns a Checker driving dispatcher over the cluster described
// by spec.
func NewChecker(spec *config.ClusterSpec, dispatcher Dispatcher) *Checker {
	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Checker{
		spec:       spec,
		dispatcher: dispatcher,
		rng:        rand.New(rand.NewSource(seed)),
		logger:     spec.Logger().WithField("component", "check"),
	}
}

// Run announces blob at the source node, waits for propagation according to
// the spec's wait policy, then polls every node's peer list and compares it
// against the source's. A source of 0 picks a node at random. If the
// announce itself fails the check aborts before polling.
func (c *Checker) Run(blob string, source int) (*Result, error) {
	if c.spec.Nodes < 1 {
		return nil, common.NewClusterErr("check", common.Usage,
			fmt.Sprintf("nodes=%d", c.spec.Nodes))
	}

	if source == 0 {
		source = 1 + c.rng.Intn(c.spec.Nodes)
	}

	if source < 1 || source > c.spec.Nodes {
		return nil, common.NewClusterErr("check", common.Usage,
			fmt.Sprintf("source=%d", source))
	}

	c.logger.WithFields(logrus.Fields{
		"blob":   blob,
		"source": source,
	}).Info("Announcing blob")

	if _, err := c.dispatcher.One(source, "announce", []string{blob}); err != nil {
		c.logger.WithFields(logrus.Fields{
			"node":  source,
			"error": err,
		}).Error("Announce failed")
		return nil, err
	}

	var views map[int]*nodeView

	switch c.spec.WaitPolicy {
	case WaitPoll:
		views = c.pollUntilStable(blob, source)
	default:
		time.Sleep(c.spec.Settle)
		views = c.pollAll(blob)
	}

	return c.compare(blob, source, views), nil
}

// pollAll asks every node, in ascending identifier order, for its view of
// the blob's peer list.
func (c *Checker) pollAll(blob string) map[int]*nodeView {
	views := make(map[int]*nodeView, c.spec.Nodes)

	for id := 1; id <= c.spec.Nodes; id++ {
		out, err := c.dispatcher.One(id, "peer_list", []string{blob})
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"node":  id,
				"error": err,
			}).Error("Poll failed")
			views[id] = &nodeView{Err: err}
			continue
		}

		var addrs []string
		if err := json.Unmarshal([]byte(out), &addrs); err != nil {
			c.logger.WithFields(logrus.Fields{
				"node":  id,
				"error": err,
			}).Error("Unparseable peer list")
			views[id] = &nodeView{Err: err}
			continue
		}

		if addrs == nil {
			addrs = []string{}
		}

		views[id] = &nodeView{Addrs: addrs}
	}

	return views
}

// pollUntilStable re-polls the whole cluster every PollInterval until two
// consecutive rounds are identical and agree, or until CheckTimeout. The
// last round is returned either way.
func (c *Checker) pollUntilStable(blob string, source int) map[int]*nodeView {
	deadline := time.Now().Add(c.spec.CheckTimeout)

	var prev map[int]*nodeView

	for {
		cur := c.pollAll(blob)

		if prev != nil &&
			roundsEqual(prev, cur) &&
			len(c.divergentFrom(cur, source)) == 0 {
			return cur
		}

		if !time.Now().Before(deadline) {
			c.logger.WithField("blob", blob).Warn("Check timed out before views stabilized")
			return cur
		}

		prev = cur
		time.Sleep(c.spec.PollInterval)
	}
}

// divergentFrom lists the nodes whose view does not match the source's, in
// ascending identifier order. A node that could not be polled is divergent.
// When the source itself could not be polled there is no reference view, and
// every node is reported divergent.
func (c *Checker) divergentFrom(views map[int]*nodeView, source int) []int {
	divergent := []int{}
	ref := views[source]

	for id := 1; id <= c.spec.Nodes; id++ {
		v := views[id]
		if v.Err != nil || ref.Err != nil || !equalViews(v.Addrs, ref.Addrs) {
			divergent = append(divergent, id)
		}
	}

	return divergent
}

func (c *Checker) compare(blob string, source int, views map[int]*nodeView) *Result {
	outViews := make(map[int][]string, c.spec.Nodes)
	for id := 1; id <= c.spec.Nodes; id++ {
		outViews[id] = views[id].Addrs
	}

	divergent := c.divergentFrom(views, source)

	return &Result{
		Blob:      blob,
		Source:    source,
		Views:     outViews,
		Agreement: len(divergent) == 0,
		Divergent: divergent,
	}
}

// equalViews compares two peer lists element by element. Order matters: two
// nodes that know the same peers in a different order do not agree. Two
// empty lists agree, including at every node at once.
func equalViews(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func roundsEqual(a, b map[int]*nodeView) bool {
	if len(a) != len(b) {
		return false
	}
	for id, av := range a {
		bv, ok := b[id]
		if !ok {
			return false
		}
		if (av.Err != nil) != (bv.Err != nil) {
			return false
		}
		if av.Err == nil && !equalViews(av.Addrs, bv.Addrs) {
			return false
		}
	}
	return true
}
