package commands

import (
	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
)

//NewKillCmd returns the command that forcibly kills nodes
func NewKillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "kill [node]",
		Short:   "Deliver KILL to the cluster, or to one node",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE:    kill,
	}

	return cmd
}

func kill(cmd *cobra.Command, args []string) error {
	id, err := parseNodeArg("kill", args)
	if err != nil {
		return err
	}

	cluster := blobmesh.NewCluster(&_config.Cluster)

	if id > 0 {
		return cluster.KillOne(id)
	}

	reportFailures(cluster.KillAll())

	return nil
}
