package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobmesh/blobmesh/src/dummy"
)

//NewRunCmd returns the command that starts the blobd daemon
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run daemon",
		PreRunE: loadConfig,
		RunE:    runDaemon,
	}

	AddRunFlags(cmd)

	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runDaemon(cmd *cobra.Command, args []string) error {
	daemon := dummy.NewDaemon(_config)

	if err := daemon.Init(); err != nil {
		_config.Logger().Error("Cannot initialize daemon:", err)
		return err
	}

	daemon.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Directory containing the node's config artifact and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem announcement table")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"datadir":   _config.DataDir,
		"log":       _config.LogLevel,
		"store":     _config.Store,
		"dht_port":  _config.Node.DHTPort,
		"peer_port": _config.Node.PeerPort,
		"api_port":  _config.Node.APIPort,
	}

	if _config.Store {
		logFields["db"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

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

	// look for the config artifact in [datadir]/blobd.json; this is the file
	// the harness writes at provision time (.toml and .yaml also work)
	viper.SetConfigName("blobd")
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from the config file
	return viper.Unmarshal(_config)
}
