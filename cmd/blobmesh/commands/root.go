package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for blobmesh
var RootCmd = &cobra.Command{
	Use:              "blobmesh",
	Short:            "blobmesh network harness",
	TraverseChildren: true,
}

func init() {
	AddRootFlags(RootCmd)
}

//AddRootFlags adds the persistent flags shared by all commands
func AddRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("workspace", _config.Cluster.Workspace, "Top-level directory for node folders and artifacts")
	cmd.PersistentFlags().String("log", _config.Cluster.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.PersistentFlags().Duration("api-timeout", _config.Cluster.APITimeout, "Per-call bound on control-plane commands")
	cmd.PersistentFlags().BoolP("verbose", "v", _config.Cluster.Verbose, "Echo every dispatched command")
}

// parseNodeArg reads an optional node id argument. 0 means the whole cluster.
func parseNodeArg(op string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return 0, common.NewClusterErr(op, common.Usage,
			fmt.Sprintf("bad node id %q", args[0]))
	}

	return id, nil
}

// reportFailures prints one line per failed node, in node order.
func reportFailures(failures map[int]error) {
	ids := []int{}
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		fmt.Printf("node%d: %v\n", id, failures[id])
	}
}
