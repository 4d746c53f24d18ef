package dummy

import (
	"sort"
	"sync"
)

// Table is the daemon's index of which peers serve which blobs. Peer lists
// preserve insertion order, and a (blob, peer) pair is recorded at most
// once.
type Table interface {
	// Add records that addr serves blob. It reports whether the pair was
	// new.
	Add(blob, addr string) (bool, error)

	// PeerList returns the peers recorded for blob, in insertion order. An
	// unknown blob yields an empty list.
	PeerList(blob string) ([]string, error)

	// Blobs returns the known blob identifiers in lexical order.
	Blobs() ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// InmemTable is a Table held entirely in memory.
type InmemTable struct {
	l     sync.Mutex
	peers map[string][]string
}

// NewInmemTable returns an empty InmemTable.
func NewInmemTable() *InmemTable {
	return &InmemTable{
		peers: make(map[string][]string),
	}
}

// Add implements Table.
func (t *InmemTable) Add(blob, addr string) (bool, error) {
	t.l.Lock()
	defer t.l.Unlock()

	for _, known := range t.peers[blob] {
		if known == addr {
			return false, nil
		}
	}

	t.peers[blob] = append(t.peers[blob], addr)

	return true, nil
}

// PeerList implements Table.
func (t *InmemTable) PeerList(blob string) ([]string, error) {
	t.l.Lock()
	defer t.l.Unlock()

	list := t.peers[blob]
	res := make([]string, len(list))
	copy(res, list)

	return res, nil
}

// Blobs implements Table.
func (t *InmemTable) Blobs() ([]string, error) {
	t.l.Lock()
	defer t.l.Unlock()

	blobs := make([]string, 0, len(t.peers))
	for blob := range t.peers {
		blobs = append(blobs, blob)
	}
	sort.Strings(blobs)

	return blobs, nil
}

// Close implements Table.
func (t *InmemTable) Close() error {
	return nil
}
