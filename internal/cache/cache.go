package cache

import (
	"context"
	"sync"
	"time"

	"sneaker_store/internal/database"
)

const ListCacheTTL = 30 * time.Second

type entry struct {
	docs    []database.Document
	expires time.Time
}

// Store met en cache les listings de collection devant un database.Store.
// Toute écriture passant par lui invalide la collection concernée ; les
// écritures faites ailleurs (autre instance sur le même Redis) sont vues au
// plus tard après le TTL.
type Store struct {
	database.Store

	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	version map[string]uint64
	now     func() time.Time
}

func Wrap(store database.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = ListCacheTTL
	}
	return &Store{
		Store:   store,
		ttl:     ttl,
		entries: make(map[string]entry),
		version: make(map[string]uint64),
		now:     time.Now,
	}
}

// List renvoie le listing en cache s'il est encore valide, sinon interroge le store
func (s *Store) List(ctx context.Context, collection string) ([]database.Document, error) {
	s.mu.RLock()
	e, ok := s.entries[collection]
	version := s.version[collection]
	s.mu.RUnlock()
	if ok && s.now().Before(e.expires) {
		return copyDocs(e.docs), nil
	}

	docs, err := s.Store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	// une écriture concurrente a pu rendre ce listing obsolète
	s.mu.Lock()
	if s.version[collection] == version {
		s.entries[collection] = entry{docs: copyDocs(docs), expires: s.now().Add(s.ttl)}
	}
	s.mu.Unlock()
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, doc database.Document) (database.Document, error) {
	s.Invalidate(collection)
	defer s.Invalidate(collection)
	return s.Store.Create(ctx, collection, doc)
}

func (s *Store) Update(ctx context.Context, collection, id string, doc database.Document) (database.Document, error) {
	s.Invalidate(collection)
	defer s.Invalidate(collection)
	return s.Store.Update(ctx, collection, id, doc)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.Invalidate(collection)
	defer s.Invalidate(collection)
	return s.Store.Delete(ctx, collection, id)
}

// Invalidate oublie le listing d'une collection
func (s *Store) Invalidate(collection string) {
	s.mu.Lock()
	delete(s.entries, collection)
	s.version[collection]++
	s.mu.Unlock()
}

// copie superficielle : les handlers ne modifient que le premier niveau
func copyDocs(docs []database.Document) []database.Document {
	out := make([]database.Document, len(docs))
	for i, doc := range docs {
		c := make(database.Document, len(doc))
		for k, v := range doc {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
