package topology

import (
	"io/ioutil"
	"math/rand"
	"os"
	"reflect"
	"testing"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

func testSpec(t *testing.T, nodes int, knownNodes int) *config.ClusterSpec {
	spec := config.NewTestSpec(t, logrus.ErrorLevel)
	spec.Nodes = nodes
	spec.KnownNodes = knownNodes
	return spec
}

func TestGeneratePortDistinctness(t *testing.T) {
	spec := testSpec(t, 10, 2)

	configs, err := Generate(spec, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	ports := make(map[int]bool)
	for _, conf := range configs {
		ports[conf.DHTPort] = true
		ports[conf.PeerPort] = true
		ports[conf.APIPort] = true
	}

	if len(ports) != 3*spec.Nodes {
		t.Fatalf("should have %d distinct ports, not %d", 3*spec.Nodes, len(ports))
	}
}

func TestGenerateKnownNodes(t *testing.T) {
	spec := testSpec(t, 5, 3)

	configs, err := Generate(spec, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	valid := make(map[string]bool)
	for id := 1; id <= spec.Nodes; id++ {
		valid[spec.DHTAddr(id)] = true
	}

	for id, conf := range configs {
		if len(conf.KnownNodes) != spec.KnownNodes {
			t.Fatalf("node%d should have %d bootstrap entries, not %d",
				id, spec.KnownNodes, len(conf.KnownNodes))
		}
		for _, addr := range conf.KnownNodes {
			if !valid[addr] {
				t.Fatalf("node%d bootstrap entry %s is not a cluster DHT address", id, addr)
			}
		}
	}
}

// TestGenerateSelfAndDuplicates pins down that draws are written out
// unfiltered: with a single node every draw is a self-reference, and asking
// for more entries than nodes forces duplicates.
func TestGenerateSelfAndDuplicates(t *testing.T) {
	spec := testSpec(t, 1, 3)

	configs, err := Generate(spec, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := []string{spec.DHTAddr(1), spec.DHTAddr(1), spec.DHTAddr(1)}
	if !reflect.DeepEqual(configs[1].KnownNodes, expected) {
		t.Fatalf("bootstrap entries should be %v, not %v", expected, configs[1].KnownNodes)
	}
}

func TestGenerateDeterminism(t *testing.T) {
	spec := testSpec(t, 6, 2)

	first, err := Generate(spec, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	second, err := Generate(spec, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed should yield the same topology")
	}
}

func TestGeneratePortCollision(t *testing.T) {
	spec := testSpec(t, 4, 2)
	spec.PeerPortBase = spec.DHTPortBase

	if _, err := Generate(spec, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("overlapping port ranges should fail")
	}
}

func TestGenerateUsage(t *testing.T) {
	spec := testSpec(t, 0, 2)

	_, err := Generate(spec, rand.New(rand.NewSource(1)))
	if !common.Is(err, common.Usage) {
		t.Fatalf("nodes=0 should be a usage error, got: %v", err)
	}
}

func TestMaterialize(t *testing.T) {
	dir, err := ioutil.TempDir("", "blobmesh")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	spec := testSpec(t, 3, 2)
	spec.Workspace = dir

	configs, err := Generate(spec, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if failures := Materialize(spec, configs); len(failures) > 0 {
		t.Fatalf("materialize failures: %v", failures)
	}

	for id := 1; id <= spec.Nodes; id++ {
		for _, path := range []string{
			spec.NodeConfigFile(id),
			spec.DataDir(id),
			spec.DownloadDir(id),
			spec.WalletDir(id),
		} {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("node%d: missing %s", id, path)
			}
		}
	}

	readConf, err := config.NewJSONNodeConfig(spec.NodeDir(2)).NodeConfig()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(configs[2], readConf) {
		t.Fatalf("artifact should be %#v, not %#v", configs[2], readConf)
	}
}
