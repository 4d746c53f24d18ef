package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/blobmesh"
	"github.com/blobmesh/blobmesh/src/common"
)

//NewCliCmd returns the command that broadcasts a control-plane command
func NewCliCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cli <method> [args...]",
		Short: "Broadcast a control-plane command to every node",
		Long: `cli sends the same control-plane command to every node in the cluster and
prints one line per node. A node that fails to answer is reported inline; the
sweep never stops early.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: loadConfig,
		RunE:    cli,
	}

	return cmd
}

func cli(cmd *cobra.Command, args []string) error {
	cluster := blobmesh.NewCluster(&_config.Cluster)

	outcomes := cluster.Broadcast(args[0], args[1:])

	ids := []int{}
	for id := range outcomes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		out := outcomes[id]
		if out.Err != nil {
			fmt.Printf("node%d: error: %v\n", id, out.Err)
			continue
		}
		fmt.Printf("node%d: %s\n", id, out.Output)
	}

	return nil
}

//NewCli1Cmd returns the command that addresses a single node
func NewCli1Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cli1 <node> <method> [args...]",
		Short:   "Send a control-plane command to one node",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: loadConfig,
		RunE:    cli1,
	}

	return cmd
}

func cli1(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return common.NewClusterErr("cli1", common.Usage,
			fmt.Sprintf("bad node id %q", args[0]))
	}

	cluster := blobmesh.NewCluster(&_config.Cluster)

	out, err := cluster.Exec(id, args[1], args[2:])
	if err != nil {
		return err
	}

	fmt.Println(out)

	return nil
}
