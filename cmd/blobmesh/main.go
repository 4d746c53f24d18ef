package main

import (
	_ "net/http/pprof"
	"os"

	cmd "github.com/blobmesh/blobmesh/cmd/blobmesh/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewStartCmd(),
		cmd.NewStopCmd(),
		cmd.NewKillCmd(),
		cmd.NewCliCmd(),
		cmd.NewCli1Cmd(),
		cmd.NewCheckCmd(),
		cmd.NewShellCmd(),
		cmd.NewLogCmd())

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
