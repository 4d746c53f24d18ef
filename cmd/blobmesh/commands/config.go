package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobmesh/blobmesh/src/config"
)

//CLIConfig contains configuration for the harness commands
type CLIConfig struct {
	Cluster config.ClusterSpec `mapstructure:",squash"`
	Source  int                `mapstructure:"source"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Cluster: *config.NewDefaultSpec(),
		Source:  0,
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	if err := mergeClusterFile(cmd); err != nil {
		return err
	}

	_config.Cluster.Logger().WithFields(logrus.Fields{
		"workspace": _config.Cluster.Workspace,
		"nodes":     _config.Cluster.Nodes,
		"known":     _config.Cluster.KnownNodes,
		"daemon":    _config.Cluster.DaemonBin,
		"log":       _config.Cluster.LogLevel,
	}).Debug("Cluster config")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [workspace]/blobmesh.toml (.json, .yaml also work)
	viper.SetConfigName("blobmesh")
	viper.AddConfigPath(_config.Cluster.Workspace)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Cluster.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Cluster.Logger().Debugf("No config file found in: %s", _config.Cluster.Workspace)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// mergeClusterFile overlays the plan that start persisted in the workspace, so
// later invocations address the cluster that was actually laid out instead of
// compiled-in defaults. Explicit flags still win.
func mergeClusterFile(cmd *cobra.Command) error {
	saved, err := config.NewJSONClusterSpec(_config.Cluster.Workspace).Spec()
	if err != nil {
		// Not provisioned yet. Commands that need a workspace fail on their
		// own terms.
		return nil
	}

	if !cmd.Flags().Changed("nodes") {
		_config.Cluster.Nodes = saved.Nodes
	}
	if !cmd.Flags().Changed("known") {
		_config.Cluster.KnownNodes = saved.KnownNodes
	}
	if !cmd.Flags().Changed("daemon") {
		_config.Cluster.DaemonBin = saved.DaemonBin
	}
	if !cmd.Flags().Changed("external-ip") {
		_config.Cluster.ExternalIP = saved.ExternalIP
	}
	if !cmd.Flags().Changed("dht-base") {
		_config.Cluster.DHTPortBase = saved.DHTPortBase
	}
	if !cmd.Flags().Changed("peer-base") {
		_config.Cluster.PeerPortBase = saved.PeerPortBase
	}
	if !cmd.Flags().Changed("api-base") {
		_config.Cluster.APIPortBase = saved.APIPortBase
	}
	if !cmd.Flags().Changed("seed") {
		_config.Cluster.Seed = saved.Seed
	}

	return nil
}
