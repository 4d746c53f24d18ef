package config

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultNodeConfigFile is the name of the config artifact written into
	// each node directory and read by the blobd daemon.
	DefaultNodeConfigFile = "blobd.json"

	// DefaultPidFile is the name of the file recording a spawned daemon's
	// process identifier.
	DefaultPidFile = "blobd.pid"

	// DefaultNodeLogFile is the file capturing a daemon's combined stdout and
	// stderr.
	DefaultNodeLogFile = "out.log"

	// DefaultClusterFile is the name of the file where the harness persists
	// the cluster spec after provisioning.
	DefaultClusterFile = "cluster.json"

	// DefaultHarnessLogFile is the file where harness logs are teed in
	// addition to stderr.
	DefaultHarnessLogFile = "harness.log"
)

// Default configuration values.
const (
	DefaultLogLevel     = "debug"
	DefaultNodes        = 4
	DefaultKnownNodes   = 2
	DefaultDHTPortBase  = 4400
	DefaultPeerPortBase = 3400
	DefaultAPIPortBase  = 5400
	DefaultExternalIP   = "127.0.0.1"
	DefaultDaemonBin    = "blobd"
	DefaultAPITimeout   = 5 * time.Second
	DefaultSettle       = 30 * time.Second
	DefaultWaitPolicy   = "settle"
	DefaultPollInterval = 2 * time.Second
	DefaultCheckTimeout = 2 * time.Minute
)

// ClusterSpec contains all the configuration properties of a blobmesh
// cluster. It fully determines the workspace layout and the per-node config
// artifacts, so it replaces any global or ambient state: two invocations of
// the harness with the same spec address the same cluster.
type ClusterSpec struct {
	// Nodes is the number of node processes in the cluster. Node identifiers
	// run from 1 to Nodes.
	Nodes int `json:"nodes" mapstructure:"nodes"`

	// KnownNodes is the number of bootstrap DHT entries written into each
	// node's config artifact. Entries are drawn uniformly at random, with
	// replacement, from the cluster's DHT addresses, so duplicates and
	// self-references are legal.
	KnownNodes int `json:"known" mapstructure:"known"`

	// Workspace is the top-level directory containing the cluster file, the
	// harness log, and one subdirectory per node.
	Workspace string `json:"workspace" mapstructure:"workspace"`

	// DaemonBin is the daemon executable spawned for each node.
	DaemonBin string `json:"daemon" mapstructure:"daemon"`

	// ExternalIP is the address nodes advertise to eachother. Everything runs
	// on one machine, so it defaults to the loopback address.
	ExternalIP string `json:"external-ip" mapstructure:"external-ip"`

	// DHTPortBase is the base for DHT ports. Node i listens on
	// DHTPortBase + i.
	DHTPortBase int `json:"dht-base" mapstructure:"dht-base"`

	// PeerPortBase is the base for blob transfer ports.
	PeerPortBase int `json:"peer-base" mapstructure:"peer-base"`

	// APIPortBase is the base for control-plane API ports.
	APIPortBase int `json:"api-base" mapstructure:"api-base"`

	// APITimeout bounds each individual control-plane call.
	APITimeout time.Duration `json:"api-timeout" mapstructure:"api-timeout"`

	// WaitPolicy selects how a consistency check waits for the announcement
	// to propagate: "settle" sleeps for the fixed Settle duration, "poll"
	// polls every PollInterval until the views stop changing and agree, or
	// until CheckTimeout.
	WaitPolicy string `json:"wait-policy" mapstructure:"wait-policy"`

	// Settle is the fixed propagation wait used by the "settle" policy.
	Settle time.Duration `json:"settle" mapstructure:"settle"`

	// PollInterval is the polling period used by the "poll" policy.
	PollInterval time.Duration `json:"poll-interval" mapstructure:"poll-interval"`

	// CheckTimeout bounds a whole "poll" policy check.
	CheckTimeout time.Duration `json:"check-timeout" mapstructure:"check-timeout"`

	// Seed seeds the random draws of the harness: the bootstrap topology and
	// the check's source-node choice. Zero means derive a seed from the
	// clock.
	Seed int64 `json:"seed" mapstructure:"seed"`

	// Verbose makes the dispatcher echo the equivalent command line of every
	// control-plane call it issues.
	Verbose bool `json:"verbose" mapstructure:"verbose"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `json:"log" mapstructure:"log"`

	logger *logrus.Logger
}

// NewDefaultSpec returns a spec with default values.
func NewDefaultSpec() *ClusterSpec {
	spec := &ClusterSpec{
		Nodes:        DefaultNodes,
		KnownNodes:   DefaultKnownNodes,
		Workspace:    DefaultWorkspace(),
		DaemonBin:    DefaultDaemonBin,
		ExternalIP:   DefaultExternalIP,
		DHTPortBase:  DefaultDHTPortBase,
		PeerPortBase: DefaultPeerPortBase,
		APIPortBase:  DefaultAPIPortBase,
		APITimeout:   DefaultAPITimeout,
		WaitPolicy:   DefaultWaitPolicy,
		Settle:       DefaultSettle,
		PollInterval: DefaultPollInterval,
		CheckTimeout: DefaultCheckTimeout,
		LogLevel:     DefaultLogLevel,
	}

	return spec
}

// NewTestSpec returns a spec with default values and a special logger for
// debugging tests.
func NewTestSpec(t testing.TB, level logrus.Level) *ClusterSpec {
	spec := NewDefaultSpec()
	spec.logger = common.NewTestLogger(t, level)
	return spec
}

// NodeDir returns the directory holding one node's artifacts.
func (s *ClusterSpec) NodeDir(id int) string {
	return filepath.Join(s.Workspace, fmt.Sprintf("node%d", id))
}

// NodeConfigFile returns the full path of a node's config artifact.
func (s *ClusterSpec) NodeConfigFile(id int) string {
	return filepath.Join(s.NodeDir(id), DefaultNodeConfigFile)
}

// NodePidFile returns the full path of a node's pid record.
func (s *ClusterSpec) NodePidFile(id int) string {
	return filepath.Join(s.NodeDir(id), DefaultPidFile)
}

// NodeLogFile returns the full path of a node's captured output.
func (s *ClusterSpec) NodeLogFile(id int) string {
	return filepath.Join(s.NodeDir(id), DefaultNodeLogFile)
}

// DataDir returns a node's blob storage directory.
func (s *ClusterSpec) DataDir(id int) string {
	return filepath.Join(s.NodeDir(id), "data")
}

// DownloadDir returns a node's download directory.
func (s *ClusterSpec) DownloadDir(id int) string {
	return filepath.Join(s.NodeDir(id), "download")
}

// WalletDir returns a node's wallet directory.
func (s *ClusterSpec) WalletDir(id int) string {
	return filepath.Join(s.NodeDir(id), "wallet")
}

// ClusterFile returns the full path of the persisted cluster spec.
func (s *ClusterSpec) ClusterFile() string {
	return filepath.Join(s.Workspace, DefaultClusterFile)
}

// HarnessLogFile returns the full path of the harness log.
func (s *ClusterSpec) HarnessLogFile() string {
	return filepath.Join(s.Workspace, DefaultHarnessLogFile)
}

// DHTPort returns a node's DHT port.
func (s *ClusterSpec) DHTPort(id int) int {
	return s.DHTPortBase + id
}

// PeerPort returns a node's blob transfer port.
func (s *ClusterSpec) PeerPort(id int) int {
	return s.PeerPortBase + id
}

// APIPort returns a node's control-plane port.
func (s *ClusterSpec) APIPort(id int) int {
	return s.APIPortBase + id
}

// DHTAddr returns a node's DHT address in host:port form.
func (s *ClusterSpec) DHTAddr(id int) string {
	return net.JoinHostPort(s.ExternalIP, strconv.Itoa(s.DHTPort(id)))
}

// APIAddr returns a node's control-plane address in host:port form.
func (s *ClusterSpec) APIAddr(id int) string {
	return net.JoinHostPort(s.ExternalIP, strconv.Itoa(s.APIPort(id)))
}

// Logger returns a formatted logrus Entry, with prefix set to "blobmesh".
// When the workspace exists, log entries are also teed into the harness log
// file; otherwise they only go to the default stderr output.
func (s *ClusterSpec) Logger() *logrus.Entry {
	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.Level = LogLevel(s.LogLevel)
		s.logger.Formatter = new(prefixed.TextFormatter)

		if _, err := os.Stat(s.Workspace); err == nil {
			pathMap := lfshook.PathMap{
				logrus.DebugLevel: s.HarnessLogFile(),
				logrus.InfoLevel:  s.HarnessLogFile(),
				logrus.WarnLevel:  s.HarnessLogFile(),
				logrus.ErrorLevel: s.HarnessLogFile(),
			}
			s.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.TextFormatter{},
			))
		}
	}
	return s.logger.WithField("prefix", "blobmesh")
}

// DefaultWorkspace returns the default directory for cluster workspaces based
// on the underlying OS, attempting to respect conventions.
func DefaultWorkspace() string {
	// Try to place the workspace in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Blobmesh")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Blobmesh")
		} else {
			return filepath.Join(home, ".blobmesh")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
