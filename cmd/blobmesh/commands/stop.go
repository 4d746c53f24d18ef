package commands

import (
	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
)

//NewStopCmd returns the command that gracefully stops nodes
func NewStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stop [node]",
		Short:   "Deliver TERM to the cluster, or to one node",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE:    stop,
	}

	return cmd
}

func stop(cmd *cobra.Command, args []string) error {
	id, err := parseNodeArg("stop", args)
	if err != nil {
		return err
	}

	cluster := blobmesh.NewCluster(&_config.Cluster)

	if id > 0 {
		return cluster.StopOne(id)
	}

	reportFailures(cluster.StopAll())

	return nil
}
