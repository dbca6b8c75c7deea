package dataset

import (
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrNotBuffered is returned when a dataset's tables are not in the store,
// either because they expired or because an analysis already consumed them.
var ErrNotBuffered = errors.New("dataset tables are not buffered")

// Store holds dataset tables between their creation and the analysis that
// consumes them. Entries expire after the configured TTL.
type Store struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewStore creates a store whose entries live for ttl.
func NewStore(ttl, cleanupInterval time.Duration) *Store {
	return &Store{cache: cache.New(ttl, cleanupInterval)}
}

// Put buffers tables under the dataset id, replacing any previous entry.
func (s *Store) Put(datasetID string, tables *Tables) {
	s.cache.Set(datasetID, tables, cache.DefaultExpiration)
}

// Peek returns the buffered tables without consuming them.
func (s *Store) Peek(datasetID string) (*Tables, error) {
	v, ok := s.cache.Get(datasetID)
	if !ok {
		return nil, ErrNotBuffered
	}
	return v.(*Tables), nil
}

// Take removes and returns the buffered tables. Concurrent callers for the
// same id get the tables at most once.
func (s *Store) Take(datasetID string) (*Tables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(datasetID)
	if !ok {
		return nil, ErrNotBuffered
	}
	s.cache.Delete(datasetID)
	return v.(*Tables), nil
}

// Len returns the number of buffered datasets, expired ones included until
// the next cleanup.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
