package commands

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/config"
)

//NewLogCmd returns the command that tails a node's daemon log
func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "log [node]",
		Short:   "Show realtime logs for a node",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeArg("log", args)
			if err != nil {
				return err
			}
			if id == 0 {
				id = 1
			}

			readLog(&_config.Cluster, id)

			return nil
		},
	}

	return cmd
}

func readLog(spec *config.ClusterSpec, id int) {
	logs := exec.Command("tail", "-f", spec.NodeLogFile(id))

	// This is crucial - otherwise it will write to a null device.
	logs.Stdout = os.Stdout

	logs.Run()
}
