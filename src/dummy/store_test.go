package dummy

import (
	"reflect"
	"testing"
)

func TestInmemTableAdd(t *testing.T) {
	table := NewInmemTable()

	inserted, err := table.Add("deadbeef", "127.0.0.1:4401")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !inserted {
		t.Fatal("first Add should report an insertion")
	}

	inserted, err = table.Add("deadbeef", "127.0.0.1:4401")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if inserted {
		t.Fatal("duplicate Add should not report an insertion")
	}

	peers, err := table.PeerList("deadbeef")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(peers) != 1 {
		t.Fatalf("peer list should have 1 entry, not %d", len(peers))
	}
}

func TestInmemTableOrder(t *testing.T) {
	table := NewInmemTable()

	addrs := []string{
		"127.0.0.1:4403",
		"127.0.0.1:4401",
		"127.0.0.1:4402",
	}
	for _, addr := range addrs {
		if _, err := table.Add("deadbeef", addr); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	peers, err := table.PeerList("deadbeef")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(peers, addrs) {
		t.Fatalf("peer list should preserve insertion order, got %v", peers)
	}
}

func TestInmemTableCopy(t *testing.T) {
	table := NewInmemTable()

	if _, err := table.Add("deadbeef", "127.0.0.1:4401"); err != nil {
		t.Fatalf("err: %v", err)
	}

	peers, _ := table.PeerList("deadbeef")
	peers[0] = "mangled"

	again, _ := table.PeerList("deadbeef")
	if again[0] != "127.0.0.1:4401" {
		t.Fatal("PeerList should return a copy, not the backing slice")
	}
}

func TestInmemTableUnknownBlob(t *testing.T) {
	table := NewInmemTable()

	peers, err := table.PeerList("cafebabe")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("unknown blob should have an empty peer list, got %v", peers)
	}
}

func TestInmemTableBlobs(t *testing.T) {
	table := NewInmemTable()

	table.Add("beta", "127.0.0.1:4401")
	table.Add("alpha", "127.0.0.1:4401")
	table.Add("gamma", "127.0.0.1:4401")

	blobs, err := table.Blobs()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(blobs, expected) {
		t.Fatalf("blobs should be sorted, got %v", blobs)
	}
}
