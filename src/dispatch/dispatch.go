// Package dispatch routes control-plane commands to the daemons of a
// cluster.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/blobmesh/blobmesh/src/api"
	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

// Outcome holds one node's response, or error, from a broadcast.
type Outcome struct {
	Output string
	Err    error
}

// Dispatcher issues control-plane commands to cluster nodes. It resolves a
// node's endpoint from the config artifact in its directory, so it works
// against any cluster whose workspace is on disk, whether or not this
// invocation spawned it.
type Dispatcher struct {
	spec   *config.ClusterSpec
	logger *logrus.Entry
}

// NewDispatcher returns a Dispatcher over the workspace described by spec.
func NewDispatcher(spec *config.ClusterSpec) *Dispatcher {
	return &Dispatcher{
		spec:   spec,
		logger: spec.Logger().WithField("component", "dispatch"),
	}
}

// One issues a command to a single node and returns the raw textual response.
// A node whose config artifact is missing fails with a WorkspaceNotFound
// error; daemon-side and transport errors are returned as they are.
func (d *Dispatcher) One(id int, method string, args []string) (string, error) {
	conf, err := config.NewJSONNodeConfig(d.spec.NodeDir(id)).NodeConfig()
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"node":  id,
			"error": err,
		}).Debug("No config artifact")
		return "", common.NewClusterErr("dispatch", common.WorkspaceNotFound,
			fmt.Sprintf("node%d", id))
	}

	if d.spec.Verbose {
		fmt.Printf("node%d$ %s cli --api %s %s %s\n",
			id, d.spec.DaemonBin, conf.APIAddr(), method, strings.Join(args, " "))
	}

	client := api.NewClient(conf.APIAddr(), d.spec.APITimeout)

	raw, err := client.Call(method, args)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

// All issues the command to every node in ascending identifier order. A
// per-node failure is collected alongside the successful responses rather
// than aborting the broadcast.
func (d *Dispatcher) All(method string, args []string) map[int]Outcome {
	outcomes := make(map[int]Outcome, d.spec.Nodes)

	for id := 1; id <= d.spec.Nodes; id++ {
		output, err := d.One(id, method, args)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"node":   id,
				"method": method,
				"error":  err,
			}).Error("Dispatch failed")
		}
		outcomes[id] = Outcome{
			Output: output,
			Err:    err,
		}
	}

	return outcomes
}
