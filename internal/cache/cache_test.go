package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneaker_store/internal/database"
)

type countingStore struct {
	database.Store
	lists atomic.Int32
}

func (c *countingStore) List(ctx context.Context, collection string) ([]database.Document, error) {
	c.lists.Add(1)
	return c.Store.List(ctx, collection)
}

func newCached(t *testing.T) (*Store, *countingStore) {
	t.Helper()
	inner := &countingStore{Store: database.NewMemoryStore()}
	_, err := inner.Create(context.Background(), database.Products, database.Document{"name": "Nike Air Force 1"})
	require.NoError(t, err)
	return Wrap(inner, time.Minute), inner
}

func TestListIsServedFromCache(t *testing.T) {
	s, inner := newCached(t)
	ctx := context.Background()

	first, err := s.List(ctx, database.Products)
	require.NoError(t, err)
	second, err := s.List(ctx, database.Products)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, inner.lists.Load())
}

func TestWritesInvalidate(t *testing.T) {
	s, inner := newCached(t)
	ctx := context.Background()

	_, err := s.List(ctx, database.Products)
	require.NoError(t, err)

	_, err = s.Create(ctx, database.Products, database.Document{"name": "Converse Chuck 70"})
	require.NoError(t, err)

	docs, err := s.List(ctx, database.Products)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.EqualValues(t, 2, inner.lists.Load())

	require.NoError(t, s.Delete(ctx, database.Products, database.DocID(docs[0])))
	docs, err = s.List(ctx, database.Products)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestEntryExpires(t *testing.T) {
	s, inner := newCached(t)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.List(ctx, database.Products)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.List(ctx, database.Products)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.lists.Load())
}

func TestCallerCannotCorruptCache(t *testing.T) {
	s, _ := newCached(t)
	ctx := context.Background()

	docs, err := s.List(ctx, database.Products)
	require.NoError(t, err)
	docs[0]["name"] = "modifié"

	again, err := s.List(ctx, database.Products)
	require.NoError(t, err)
	assert.Equal(t, "Nike Air Force 1", again[0]["name"])
}
