package database

import (
	"context"
	"strconv"
	"sync"
)

type memCollection struct {
	order []string
	docs  map[string]Document
	seq   int64
}

// MemoryStore garde tout en mémoire. Utilisé en dev sans Redis et en test.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]*memCollection),
		subscribers: make(map[chan Event]struct{}),
	}
	for _, c := range []string{Products, Cart, Users} {
		s.collections[c] = &memCollection{docs: make(map[string]Document)}
	}
	return s
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[collection]
	out := make([]Document, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, clone(col.docs[id]))
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection].docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (s *MemoryStore) Create(_ context.Context, collection string, doc Document) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	doc = clone(doc)

	s.mu.Lock()
	col := s.collections[collection]
	id := DocID(doc)
	switch {
	case id != "":
		// id fourni (seed) : on avance la séquence pour éviter les collisions
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > col.seq {
			col.seq = n
		}
	case usesUUID(collection):
		id = newUUID()
	default:
		col.seq++
		id = strconv.FormatInt(col.seq, 10)
	}
	setID(doc, id)

	if _, exists := col.docs[id]; !exists {
		col.order = append(col.order, id)
	}
	col.docs[id] = doc
	s.mu.Unlock()

	s.publish(Event{Collection: collection, Action: "created", ID: id})
	return clone(doc), nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, doc Document) (Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	doc = clone(doc)
	setID(doc, id)

	s.mu.Lock()
	col := s.collections[collection]
	if _, ok := col.docs[id]; !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	col.docs[id] = doc
	s.mu.Unlock()

	s.publish(Event{Collection: collection, Action: "updated", ID: id})
	return clone(doc), nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	s.mu.Lock()
	col := s.collections[collection]
	if _, ok := col.docs[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(col.docs, id)
	for i, existing := range col.order {
		if existing == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.publish(Event{Collection: collection, Action: "deleted", ID: id})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// publish n'attend jamais un abonné lent : l'événement est perdu pour lui
func (s *MemoryStore) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *MemoryStore) Close() error { return nil }
