package dummy

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"reflect"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blobmesh/blobmesh/src/api"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/blobmesh/blobmesh/src/version"
)

func daemonConfig(t *testing.T, dhtPort, apiPort int) *Config {
	conf := NewTestConfig(t, logrus.ErrorLevel)
	conf.Node = config.NodeConfig{
		ExternalIP: "127.0.0.1",
		DHTPort:    dhtPort,
		APIPort:    apiPort,
	}
	return conf
}

func startDaemon(t *testing.T, conf *Config) *Daemon {
	d := NewDaemon(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}

	go d.Run()
	t.Cleanup(d.Shutdown)

	waitForDaemon(t, conf.Node.APIAddr())

	return d
}

func waitForDaemon(t *testing.T, apiAddr string) {
	client := api.NewClient(apiAddr, time.Second)

	timeout := time.After(3 * time.Second)
	for {
		if _, err := client.Call("version", nil); err == nil {
			return
		}

		select {
		case <-timeout:
			t.Fatalf("daemon on %s did not come up", apiAddr)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestDaemonRPC(t *testing.T) {
	conf := daemonConfig(t, 45621, 45631)
	startDaemon(t, conf)

	client := api.NewClient(conf.Node.APIAddr(), time.Second)

	raw, err := client.Call("announce", []string{"deadbeef"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(raw) != "true" {
		t.Fatalf("announce should return true, got %s", raw)
	}

	raw, err = client.Call("peer_list", []string{"deadbeef"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var peers []string
	if err := json.Unmarshal(raw, &peers); err != nil {
		t.Fatalf("err: %v", err)
	}
	expected := []string{"127.0.0.1:45621"}
	if !reflect.DeepEqual(peers, expected) {
		t.Fatalf("peer_list: got %v, expected %v", peers, expected)
	}

	raw, err = client.Call("blob_list", nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var blobs []string
	if err := json.Unmarshal(raw, &blobs); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(blobs, []string{"deadbeef"}) {
		t.Fatalf("blob_list: got %v", blobs)
	}

	raw, err = client.Call("status", nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var stats map[string]string
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("err: %v", err)
	}
	if stats["blobs"] != "1" {
		t.Fatalf("status should count 1 blob, got %q", stats["blobs"])
	}

	raw, err = client.Call("version", nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("err: %v", err)
	}
	if v != version.Version {
		t.Fatalf("version: got %q, expected %q", v, version.Version)
	}
}

func TestDaemonUnknownMethod(t *testing.T) {
	conf := daemonConfig(t, 45622, 45632)
	startDaemon(t, conf)

	client := api.NewClient(conf.Node.APIAddr(), time.Second)

	_, err := client.Call("resolve", []string{"deadbeef"})
	if err == nil {
		t.Fatal("unknown method should fail")
	}

	apiErr, ok := err.(*api.Error)
	if !ok {
		t.Fatalf("error should be an api.Error, got %T", err)
	}
	if apiErr.Code != api.CodeUnknownMethod {
		t.Fatalf("code: got %d, expected %d", apiErr.Code, api.CodeUnknownMethod)
	}
}

func TestDaemonInvalidParams(t *testing.T) {
	conf := daemonConfig(t, 45623, 45633)
	startDaemon(t, conf)

	client := api.NewClient(conf.Node.APIAddr(), time.Second)

	_, err := client.Call("announce", nil)
	if err == nil {
		t.Fatal("announce without a blob should fail")
	}

	apiErr, ok := err.(*api.Error)
	if !ok {
		t.Fatalf("error should be an api.Error, got %T", err)
	}
	if apiErr.Code != api.CodeInvalidParams {
		t.Fatalf("code: got %d, expected %d", apiErr.Code, api.CodeInvalidParams)
	}
}

func TestDaemonSignal(t *testing.T) {
	conf := daemonConfig(t, 45624, 45634)

	d := NewDaemon(conf)
	if err := d.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()
	t.Cleanup(d.Shutdown)

	waitForDaemon(t, conf.Node.APIAddr())

	d.sigCh <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop on SIGTERM")
	}

	client := api.NewClient(conf.Node.APIAddr(), time.Second)
	if _, err := client.Call("version", nil); err == nil {
		t.Fatal("control plane should be down after SIGTERM")
	}
}

func TestDaemonPersistentTable(t *testing.T) {
	dataDir, err := ioutil.TempDir("", "blobmesh")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dataDir)

	conf := daemonConfig(t, 45625, 45635)
	conf.Store = true
	conf.SetDataDir(dataDir)

	d := startDaemon(t, conf)

	client := api.NewClient(conf.Node.APIAddr(), time.Second)
	if _, err := client.Call("announce", []string{"deadbeef"}); err != nil {
		t.Fatalf("err: %v", err)
	}

	d.Shutdown()

	// Reopen the same datadir. The announcement must come back from disk.
	conf2 := daemonConfig(t, 45625, 45635)
	conf2.Store = true
	conf2.SetDataDir(dataDir)

	d2 := NewDaemon(conf2)
	if err := d2.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	defer d2.Shutdown()

	peers, err := d2.table.PeerList("deadbeef")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	expected := []string{"127.0.0.1:45625"}
	if !reflect.DeepEqual(peers, expected) {
		t.Fatalf("announcement should survive a restart, got %v", peers)
	}
}
