package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"sneaker_store/internal/models"
)

// lineLocks donne un verrou par ligne de panier. Les entrées inutilisées
// sont libérées pour ne pas garder les lignes supprimées.
type lineLocks struct {
	mu    sync.Mutex
	locks map[models.ID]*lineLock
}

type lineLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newLineLocks() *lineLocks {
	return &lineLocks{locks: make(map[models.ID]*lineLock)}
}

// acquire attend son tour sur la ligne id, dans l'ordre d'arrivée
func (l *lineLocks) acquire(ctx context.Context, id models.ID) (release func(), err error) {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &lineLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.unref(id, lock)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.sem.Release(1)
			l.unref(id, lock)
		})
	}, nil
}

func (l *lineLocks) unref(id models.ID, lock *lineLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *lineLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
