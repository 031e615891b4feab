package persist

import (
	badger "github.com/dgraph-io/badger/v4"

	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// Log is an append-only, badger-backed write-behind log of delivered blocks, keyed by content hash.
// It sits strictly behind the in-memory store: nothing in the core or the store ever reads through it
// except the one-time Replay() call a restarting replica makes to rebuild its arena.
type Log struct {
	db     *badger.DB
	logger lib.LoggerI
}

// Open() opens (creating if absent) a badger database rooted at dataDir
func Open(dataDir string, logger lib.LoggerI) (*Log, error) {
	opts := badger.DefaultOptions(dataDir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Log{db: db, logger: logger}, nil
}

// Append() persists a delivered block's wire encoding under its content hash
func (l *Log) Append(b *types.Block) error {
	bz := types.MarshalBlockBody(b)
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.Hash.Bytes(), bz)
	})
}

// Replay() streams every persisted block's raw wire bytes to fn, in undefined order; used once at
// startup to repopulate the in-memory store's arena before the replica rejoins the network
func (l *Log) Replay(fn func(raw []byte) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := item.Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close() closes the underlying database
func (l *Log) Close() error { return l.db.Close() }
