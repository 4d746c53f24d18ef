package dummy

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

const blobPrefix = "blob"

// BadgerTable is a Table backed by a badger database, with an in-memory
// mirror for reads. Every accepted Add rewrites the blob's full peer list,
// so the database always holds the peers in insertion order.
type BadgerTable struct {
	inmem *InmemTable
	db    *badger.DB
	path  string
}

// NewBadgerTable creates a fresh database in path, which must not already
// exist.
func NewBadgerTable(path string, logger *logrus.Entry) (*BadgerTable, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("database already exists in %s", path)
	}

	return openBadgerTable(path, logger)
}

// LoadBadgerTable opens an existing database and rebuilds the in-memory
// mirror from it.
func LoadBadgerTable(path string, logger *logrus.Entry) (*BadgerTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	table, err := openBadgerTable(path, logger)
	if err != nil {
		return nil, err
	}

	if err := table.loadPeers(); err != nil {
		table.db.Close()
		return nil, err
	}

	return table, nil
}

// LoadOrCreateBadgerTable loads an existing database, and creates a new one
// if nothing is found in path.
func LoadOrCreateBadgerTable(path string, logger *logrus.Entry) (*BadgerTable, error) {
	table, err := LoadBadgerTable(path, logger)
	if err != nil {
		table, err = NewBadgerTable(path, logger)
	}
	return table, err
}

// openBadgerTable opens the database with truncation enabled: the daemon is
// routinely killed with KILL, and badger refuses to open a value log that
// was not closed cleanly unless it may truncate it.
func openBadgerTable(path string, logger *logrus.Entry) (*BadgerTable, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		sub := logger.WithFields(logrus.Fields{"ns": "badger"})
		opts = opts.WithLogger(sub)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerTable{
		inmem: NewInmemTable(),
		db:    handle,
		path:  path,
	}, nil
}

func blobKey(blob string) []byte {
	return []byte(fmt.Sprintf("%s_%s", blobPrefix, blob))
}

// loadPeers replays every persisted peer list into the in-memory mirror.
func (t *BadgerTable) loadPeers() error {
	prefix := []byte(blobPrefix + "_")

	return t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			blob := string(item.Key()[len(prefix):])

			var addrs []string
			err := item.Value(func(data []byte) error {
				return unmarshalPeers(data, &addrs)
			})
			if err != nil {
				return err
			}

			for _, addr := range addrs {
				if _, err := t.inmem.Add(blob, addr); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// Add implements Table. The pair goes into the in-memory mirror first; only
// new pairs touch the database.
func (t *BadgerTable) Add(blob, addr string) (bool, error) {
	inserted, err := t.inmem.Add(blob, addr)
	if err != nil || !inserted {
		return inserted, err
	}

	addrs, err := t.inmem.PeerList(blob)
	if err != nil {
		return true, err
	}

	val, err := marshalPeers(addrs)
	if err != nil {
		return true, err
	}

	tx := t.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Set(blobKey(blob), val); err != nil {
		return true, err
	}

	return true, tx.Commit()
}

// PeerList implements Table.
func (t *BadgerTable) PeerList(blob string) ([]string, error) {
	return t.inmem.PeerList(blob)
}

// Blobs implements Table.
func (t *BadgerTable) Blobs() ([]string, error) {
	return t.inmem.Blobs()
}

// Close implements Table.
func (t *BadgerTable) Close() error {
	return t.db.Close()
}

func marshalPeers(addrs []string) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(addrs); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func unmarshalPeers(data []byte, addrs *[]string) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(addrs)
}
