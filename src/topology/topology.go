// Package topology computes the bootstrap topology of a cluster and lays it
// out on disk.
package topology

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
)

// Generate computes the config artifact of every node in the cluster. Each
// node gets KnownNodes bootstrap entries drawn uniformly at random, with
// replacement, from the cluster's DHT addresses. A node can be handed itself,
// or the same peer twice; the daemon tolerates both, so the draws are written
// out unfiltered, in the order they were made.
//
// Generate fails fast if the port plan assigns the same port twice.
func Generate(spec *config.ClusterSpec, rng *rand.Rand) (map[int]*config.NodeConfig, error) {
	if spec.Nodes < 1 {
		return nil, common.NewClusterErr("generate", common.Usage,
			fmt.Sprintf("nodes=%d", spec.Nodes))
	}

	if spec.KnownNodes < 0 {
		return nil, common.NewClusterErr("generate", common.Usage,
			fmt.Sprintf("known=%d", spec.KnownNodes))
	}

	if err := checkPortPlan(spec); err != nil {
		return nil, err
	}

	configs := make(map[int]*config.NodeConfig, spec.Nodes)

	for id := 1; id <= spec.Nodes; id++ {
		knownNodes := make([]string, spec.KnownNodes)
		for k := range knownNodes {
			draw := 1 + rng.Intn(spec.Nodes)
			knownNodes[k] = spec.DHTAddr(draw)
		}
		configs[id] = config.NewNodeConfig(spec, id, knownNodes)
	}

	return configs, nil
}

// checkPortPlan verifies that the 3N ports derived from the spec's bases are
// pairwise distinct.
func checkPortPlan(spec *config.ClusterSpec) error {
	taken := make(map[int]string)

	claim := func(port int, what string) error {
		if prev, ok := taken[port]; ok {
			return fmt.Errorf("port %d assigned to both %s and %s", port, prev, what)
		}
		taken[port] = what
		return nil
	}

	for id := 1; id <= spec.Nodes; id++ {
		if err := claim(spec.DHTPort(id), fmt.Sprintf("node%d dht", id)); err != nil {
			return err
		}
		if err := claim(spec.PeerPort(id), fmt.Sprintf("node%d peer", id)); err != nil {
			return err
		}
		if err := claim(spec.APIPort(id), fmt.Sprintf("node%d api", id)); err != nil {
			return err
		}
	}

	return nil
}

// Materialize lays the generated configs out on disk: one directory per node
// containing the config artifact and the daemon's working directories. An I/O
// failure on one node does not stop the others; the returned map carries one
// error per failed node and is empty on full success.
func Materialize(spec *config.ClusterSpec, configs map[int]*config.NodeConfig) map[int]error {
	failures := make(map[int]error)

	for id := 1; id <= spec.Nodes; id++ {
		conf, ok := configs[id]
		if !ok {
			failures[id] = fmt.Errorf("no config generated for node%d", id)
			continue
		}

		if err := materializeNode(spec, id, conf); err != nil {
			failures[id] = err
		}
	}

	return failures
}

func materializeNode(spec *config.ClusterSpec, id int, conf *config.NodeConfig) error {
	dirs := []string{
		spec.NodeDir(id),
		conf.DataDir,
		conf.DownloadDir,
		conf.WalletDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return config.NewJSONNodeConfig(spec.NodeDir(id)).Write(conf)
}
