package commands

import (
	"github.com/spf13/cobra"

	"github.com/blobmesh/blobmesh/src/dummy"
)

var (
	_config = dummy.NewDefaultConfig()
)

//RootCmd is the root command for the blobd daemon
var RootCmd = &cobra.Command{
	Use:              "blobd",
	Short:            "blobmesh storage daemon",
	TraverseChildren: true,
}
