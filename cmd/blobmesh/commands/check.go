package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
	"github.com/blobmesh/blobmesh/src/common"
)

//NewCheckCmd returns the command that runs a consistency check
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <blob>",
		Short: "Verify that every node agrees on a blob's peer list",
		Long: `check announces the blob at one node, waits for the announcement to
propagate, then asks every node for its peer list and compares the answers
against the announcing node's view. Any node whose list differs, or that fails
to answer, makes the check fail.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE:    runCheck,
	}

	AddCheckFlags(cmd)

	return cmd
}

//AddCheckFlags adds flags to the check command
func AddCheckFlags(cmd *cobra.Command) {
	cmd.Flags().Int("source", _config.Source, "Node that announces the blob (0 draws one at random)")
	cmd.Flags().String("wait-policy", _config.Cluster.WaitPolicy, "settle or poll")
	cmd.Flags().Duration("settle", _config.Cluster.Settle, "How long announcements get to propagate")
	cmd.Flags().Duration("poll-interval", _config.Cluster.PollInterval, "Time between poll rounds")
	cmd.Flags().Duration("check-timeout", _config.Cluster.CheckTimeout, "Give up polling after this long")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cluster := blobmesh.NewCluster(&_config.Cluster)

	res, err := cluster.Check(args[0], _config.Source)
	if err != nil {
		return err
	}

	fmt.Println(res.String())

	if !res.Agreement {
		return common.NewClusterErr("check", common.Mismatch,
			fmt.Sprintf("nodes %v", res.Divergent))
	}

	return nil
}
