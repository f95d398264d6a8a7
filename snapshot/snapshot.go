// Package snapshot holds the node pool a scheduling cycle reads from
// in a go-memdb store: a consistent point-in-time read transaction
// (vnode-list/DIS decode, vnode-definition file, or a live query) that
// readers use without contending with a writer loading the next one.
// No other package in this repository imports it.
package snapshot

import (
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/vnsched/vnsched/vnode"
)

const tableVnodes = "vnodes"

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableVnodes: {
				Name: tableVnodes,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "Rank"},
					},
					"name": {
						Name:    "name",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
					"host": {
						Name:    "host",
						Indexer: &memdb.StringFieldIndex{Field: "ParentHost"},
					},
				},
			},
		},
	}
}

// Store owns the live memdb instance. A cycle driver calls Load once
// per refresh, then hands out read-only Snapshots to its workers.
type Store struct {
	db *memdb.MemDB
}

// New allocates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &Store{db: db}, nil
}

// Load replaces the store's contents with nodes in a single write
// transaction, visible to readers only once committed.
func (s *Store) Load(nodes []*vnode.Vnode) error {
	txn := s.db.Txn(true)
	if _, err := txn.DeleteAll(tableVnodes, "id"); err != nil {
		txn.Abort()
		return fmt.Errorf("snapshot: clearing prior vnodes: %w", err)
	}
	for _, n := range nodes {
		if err := txn.Insert(tableVnodes, n); err != nil {
			txn.Abort()
			return fmt.Errorf("snapshot: inserting vnode %q: %w", n.Name, err)
		}
	}
	txn.Commit()
	return nil
}

// Snapshot returns a consistent read-only view as of this call.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{txn: s.db.Txn(false)}
}

// Snapshot is a point-in-time, read-only view of the node pool.
type Snapshot struct {
	txn *memdb.Txn
}

// ByRank looks up a vnode by its pool rank, or returns nil if absent.
func (sn *Snapshot) ByRank(rank int) (*vnode.Vnode, error) {
	raw, err := sn.txn.First(tableVnodes, "id", rank)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*vnode.Vnode), nil
}

// ByName looks up a vnode by its unique name, or returns nil if absent.
func (sn *Snapshot) ByName(name string) (*vnode.Vnode, error) {
	raw, err := sn.txn.First(tableVnodes, "name", name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*vnode.Vnode), nil
}

// ByHost returns every vnode sharing host as their ParentHost.
func (sn *Snapshot) ByHost(host string) ([]*vnode.Vnode, error) {
	it, err := sn.txn.Get(tableVnodes, "host", host)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return collect(it), nil
}

// All returns every vnode in the snapshot, ordered by rank.
func (sn *Snapshot) All() ([]*vnode.Vnode, error) {
	it, err := sn.txn.Get(tableVnodes, "id")
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return collect(it), nil
}

// Pool builds a vnode.Pool from this snapshot's full contents.
func (sn *Snapshot) Pool() (*vnode.Pool, error) {
	nodes, err := sn.All()
	if err != nil {
		return nil, err
	}
	return vnode.NewPool(nodes)
}

func collect(it memdb.ResultIterator) []*vnode.Vnode {
	var out []*vnode.Vnode
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*vnode.Vnode))
	}
	return out
}
