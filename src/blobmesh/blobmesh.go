// Package blobmesh wires the harness components together: topology
// generation, process supervision, control-plane dispatch and consistency
// checking, all over one cluster spec.
package blobmesh

import (
	"math/rand"
	"os"
	"syscall"
	"time"

	"github.com/blobmesh/blobmesh/src/check"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/blobmesh/blobmesh/src/dispatch"
	"github.com/blobmesh/blobmesh/src/supervisor"
	"github.com/blobmesh/blobmesh/src/topology"
	"github.com/sirupsen/logrus"
)

// Cluster is the top-level harness engine.
type Cluster struct {
	Spec       *config.ClusterSpec
	Supervisor *supervisor.Supervisor
	Dispatcher *dispatch.Dispatcher
	Checker    *check.Checker

	logger *logrus.Entry
}

// NewCluster instantiates the harness components over spec.
func NewCluster(spec *config.ClusterSpec) *Cluster {
	c := &Cluster{
		Spec:   spec,
		logger: spec.Logger(),
	}

	c.Supervisor = supervisor.NewSupervisor(spec)
	c.Dispatcher = dispatch.NewDispatcher(spec)
	c.Checker = check.NewChecker(spec, c.Dispatcher)

	return c
}

// Provision wipes the workspace and lays out a fresh cluster: one directory
// per node with its config artifact and randomized bootstrap entries, plus
// the persisted cluster file that later invocations read the cluster's shape
// from. A node that fails to materialize is reported and skipped; it simply
// cannot be started later.
func (c *Cluster) Provision() error {
	if err := c.Wipe(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.Spec.Workspace, 0755); err != nil {
		return err
	}

	seed := c.Spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	configs, err := topology.Generate(c.Spec, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	for id, err := range topology.Materialize(c.Spec, configs) {
		c.logger.WithFields(logrus.Fields{
			"node":  id,
			"error": err,
		}).Error("Failed to materialize node")
	}

	if err := config.NewJSONClusterSpec(c.Spec.Workspace).Write(c.Spec); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"nodes":     c.Spec.Nodes,
		"workspace": c.Spec.Workspace,
	}).Info("Provisioned cluster")

	return nil
}

// StartAll launches every node's daemon.
func (c *Cluster) StartAll() map[int]error {
	return c.Supervisor.StartAll()
}

// StartOne launches one node's daemon.
func (c *Cluster) StartOne(id int) error {
	return c.Supervisor.Start(id)
}

// StopAll delivers TERM to every node.
func (c *Cluster) StopAll() map[int]error {
	return c.Supervisor.SignalAll(syscall.SIGTERM)
}

// StopOne delivers TERM to one node.
func (c *Cluster) StopOne(id int) error {
	return c.Supervisor.Signal(id, syscall.SIGTERM)
}

// KillAll delivers KILL to every node.
func (c *Cluster) KillAll() map[int]error {
	return c.Supervisor.SignalAll(syscall.SIGKILL)
}

// KillOne delivers KILL to one node.
func (c *Cluster) KillOne(id int) error {
	return c.Supervisor.Signal(id, syscall.SIGKILL)
}

// Broadcast issues a control-plane command to every node.
func (c *Cluster) Broadcast(method string, args []string) map[int]dispatch.Outcome {
	return c.Dispatcher.All(method, args)
}

// Exec issues a control-plane command to one node.
func (c *Cluster) Exec(id int, method string, args []string) (string, error) {
	return c.Dispatcher.One(id, method, args)
}

// Check runs a consistency check for blob. A source of 0 announces from a
// randomly drawn node.
func (c *Cluster) Check(blob string, source int) (*check.Result, error) {
	return c.Checker.Run(blob, source)
}

// Wipe removes the workspace and everything in it.
func (c *Cluster) Wipe() error {
	return os.RemoveAll(c.Spec.Workspace)
}
