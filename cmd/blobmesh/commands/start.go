package commands

import (
	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
)

//NewStartCmd returns the command that provisions and starts the cluster
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [node]",
		Short: "Provision and start the cluster, or start one node",
		Long: `start provisions a fresh workspace and launches every node's daemon.

Provisioning is destructive: whatever lives in the workspace is wiped and
replaced by one folder per node, each holding the node's config artifact with
its randomized bootstrap entries. With a node id argument, start skips
provisioning and launches just that node against the existing workspace.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE:    start,
	}

	AddStartFlags(cmd)

	return cmd
}

//AddStartFlags adds flags to the start command
func AddStartFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nodes", _config.Cluster.Nodes, "Amount of nodes to provision")
	cmd.Flags().Int("known", _config.Cluster.KnownNodes, "Amount of bootstrap entries drawn per node")
	cmd.Flags().String("daemon", _config.Cluster.DaemonBin, "Daemon binary launched for each node")
	cmd.Flags().String("external-ip", _config.Cluster.ExternalIP, "Address nodes advertise to each other")
	cmd.Flags().Int("dht-base", _config.Cluster.DHTPortBase, "Base UDP port for DHT endpoints; node i gets base+i")
	cmd.Flags().Int("peer-base", _config.Cluster.PeerPortBase, "Base TCP port for blob transfer; node i gets base+i")
	cmd.Flags().Int("api-base", _config.Cluster.APIPortBase, "Base TCP port for the control plane; node i gets base+i")
	cmd.Flags().Int64("seed", _config.Cluster.Seed, "Seed for the bootstrap draw (0 uses the clock)")
}

func start(cmd *cobra.Command, args []string) error {
	id, err := parseNodeArg("start", args)
	if err != nil {
		return err
	}

	cluster := blobmesh.NewCluster(&_config.Cluster)

	if id > 0 {
		return cluster.StartOne(id)
	}

	if err := cluster.Provision(); err != nil {
		return err
	}

	reportFailures(cluster.StartAll())

	return nil
}
