package dummy

import (
	"path/filepath"
	"testing"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// DefaultBadgerFile is the default name of the folder containing the Badger
// database, relative to the node's datadir.
const DefaultBadgerFile = "badger_db"

// DefaultLogLevel is the daemon's default log chattiness.
const DefaultLogLevel = "debug"

// Config holds the dummy daemon's settings. The embedded artifact fields are
// read from blobd.json in the datadir; the others come from command-line
// flags.
type Config struct {
	// Node carries the config artifact written by the harness.
	Node config.NodeConfig `mapstructure:",squash"`

	// DataDir is the node directory containing the config artifact.
	DataDir string `mapstructure:"datadir"`

	// Store activates persistent storage for the announcement table.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a Config with default values. The datadir defaults
// to the current directory; under the harness it is always set explicitly.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:  ".",
		LogLevel: DefaultLogLevel,
	}
}

// NewTestConfig returns a Config with default values and a special logger
// for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	conf := NewDefaultConfig()
	conf.logger = common.NewTestLogger(t, level)
	return conf
}

// SetDataDir sets the node directory, and derives the database directory
// from it unless one was explicitly set.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == "" {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "blobd".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = config.LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "blobd")
}
