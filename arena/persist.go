package arena

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBStore is a PersistentStore backed by LevelDB, mirroring the
// teacher's own probedb/leveldb wrapper around syndtr/goleveldb for durable
// chain state. Here it holds values that a Stack.PopReturning needs to
// survive past the last arena frame.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (creating if necessary) a LevelDB database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

// Put stores value under key, overwriting any prior value.
func (s *LevelDBStore) Put(key string, value []byte) error {
	return s.db.Put([]byte(key), value, nil)
}

// Get retrieves the value stored under key.
func (s *LevelDBStore) Get(key string) ([]byte, error) {
	return s.db.Get([]byte(key), nil)
}

// Close releases the underlying LevelDB handle.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

// MemoryStore is an in-process PersistentStore used by tests and by hosts
// that don't want on-disk persistence; it satisfies the same interface as
// LevelDBStore without requiring a filesystem.
type MemoryStore struct {
	values map[string][]byte
}

// NewMemoryStore returns an empty in-memory PersistentStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Put stores value under key.
func (s *MemoryStore) Put(key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	s.values[key] = buf
	return nil
}

// Get retrieves the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, leveldb.ErrNotFound
	}
	return v, nil
}
