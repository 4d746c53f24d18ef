package config

import (
	"net"
	"strconv"
)

// NodeConfig is the per-node config artifact consumed by the blobd daemon.
// The JSON field names are the daemon's own config keys; the harness only
// writes them, it never interprets them beyond what it needs for dispatch.
type NodeConfig struct {
	// UseUPnP is always false: everything runs on loopback, there is no NAT
	// to traverse.
	UseUPnP bool `json:"use_upnp" mapstructure:"use_upnp"`

	// ExternalIP is the address the node advertises to other nodes.
	ExternalIP string `json:"external_ip" mapstructure:"external_ip"`

	// PeerPort is the blob transfer port.
	PeerPort int `json:"peer_port" mapstructure:"peer_port"`

	// DHTPort is the UDP port of the node's DHT endpoint.
	DHTPort int `json:"dht_node_port" mapstructure:"dht_node_port"`

	// DataDir is the node's blob storage directory.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// DownloadDir is where retrieved blobs are assembled.
	DownloadDir string `json:"download_directory" mapstructure:"download_directory"`

	// WalletDir is the node's wallet directory.
	WalletDir string `json:"wallet_dir" mapstructure:"wallet_dir"`

	// KnownNodes is the ordered list of bootstrap DHT addresses. It is
	// written exactly as drawn: duplicates and self-references are preserved.
	KnownNodes []string `json:"known_dht_nodes" mapstructure:"known_dht_nodes"`

	// APIPort is the TCP port of the node's control-plane API.
	APIPort int `json:"api_port" mapstructure:"api_port"`
}

// NewNodeConfig derives node id's config artifact from the cluster spec and
// the bootstrap entries drawn for it.
func NewNodeConfig(spec *ClusterSpec, id int, knownNodes []string) *NodeConfig {
	return &NodeConfig{
		UseUPnP:     false,
		ExternalIP:  spec.ExternalIP,
		PeerPort:    spec.PeerPort(id),
		DHTPort:     spec.DHTPort(id),
		DataDir:     spec.DataDir(id),
		DownloadDir: spec.DownloadDir(id),
		WalletDir:   spec.WalletDir(id),
		KnownNodes:  knownNodes,
		APIPort:     spec.APIPort(id),
	}
}

// DHTAddr returns the node's DHT endpoint in host:port form.
func (c *NodeConfig) DHTAddr() string {
	return net.JoinHostPort(c.ExternalIP, strconv.Itoa(c.DHTPort))
}

// APIAddr returns the node's control-plane endpoint in host:port form.
func (c *NodeConfig) APIAddr() string {
	return net.JoinHostPort(c.ExternalIP, strconv.Itoa(c.APIPort))
}
