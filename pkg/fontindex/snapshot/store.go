package snapshot

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no snapshot is stored for a directory.
var ErrNotFound = errors.New("snapshot not found")

// keyPrefix namespaces snapshot keys so the keyspace can grow other record kinds.
const keyPrefix = "snap\x00"

func makeKey(dir string) []byte {
	return []byte(keyPrefix + dir)
}

// Store persists the most recent snapshot of each directory in Badger.
// Badger holds an exclusive directory lock, so a Store should only be open
// while the owning index holds its rebuild lock.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a snapshot store at the given directory.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the stored snapshot for dir.
func (s *Store) Get(dir string) (*DirectorySnapshot, error) {
	var snap DirectorySnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(dir))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(snap.Decode)
	})

	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Put stores a snapshot, replacing any previous one for the same directory.
func (s *Store) Put(snap *DirectorySnapshot) error {
	value, err := snap.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(snap.Dir), value)
	})
}

// PutBatch stores multiple snapshots in a single write batch.
func (s *Store) PutBatch(snaps []*DirectorySnapshot) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, snap := range snaps {
		value, err := snap.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(makeKey(snap.Dir), value); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Dirs lists every directory that has a stored snapshot.
func (s *Store) Dirs() ([]string, error) {
	var dirs []string
	prefix := []byte(keyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			dirs = append(dirs, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})

	return dirs, err
}

// Delete removes the snapshot for dir.
func (s *Store) Delete(dir string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeKey(dir))
	})
}
