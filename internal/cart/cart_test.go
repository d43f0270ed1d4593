package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneaker_store/internal/client"
	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
	"sneaker_store/internal/storetest"
)

var errNetwork = fmt.Errorf("%w: connexion refusée", models.ErrTransport)

// fakeStore imite le store distant. hook est appelé avant chaque mise à
// jour et peut la retarder ou la faire échouer.
type fakeStore struct {
	mu      sync.Mutex
	items   map[models.ID]models.CartItem
	seq     int
	adds    int
	updates int
	deletes int
	fail    error

	hook     func(ctx context.Context, item models.CartItem) error
	listHook func()
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeStore(items ...models.CartItem) *fakeStore {
	s := &fakeStore{items: make(map[models.ID]models.CartItem)}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeStore) AddCartItem(ctx context.Context, item models.CartItem) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	if s.fail != nil {
		return nil, s.fail
	}
	s.seq++
	item.ID = models.ID("line-" + strconv.Itoa(s.seq))
	s.items[item.ID] = item
	return &item, nil
}

func (s *fakeStore) ListCartItems(ctx context.Context) ([]models.CartItem, error) {
	s.mu.Lock()
	if s.fail != nil {
		s.mu.Unlock()
		return nil, s.fail
	}
	out := []models.CartItem{}
	for _, it := range s.items {
		out = append(out, it)
	}
	hook := s.listHook
	s.mu.Unlock()

	// la réponse est déjà lue : le hook simule un réseau lent
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *fakeStore) UpdateCartItem(ctx context.Context, id models.ID, item models.CartItem) (*models.CartItem, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	s.updates++
	hook, fail := s.hook, s.fail
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, item); err != nil {
			return nil, err
		}
	}
	if fail != nil {
		return nil, fail
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil, models.ErrNotFound
	}
	item.ID = id
	s.items[id] = item
	return &item, nil
}

func (s *fakeStore) DeleteCartItem(ctx context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.fail != nil {
		return s.fail
	}
	delete(s.items, id)
	return nil
}

func (s *fakeStore) quantity(id models.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Quantity
}

func (s *fakeStore) counts() (adds, updates, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds, s.updates, s.deletes
}

func (s *fakeStore) setHook(hook func(ctx context.Context, item models.CartItem) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

func price(n int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(n))
}

func shoe() models.Product {
	return models.Product{
		ID:     "1",
		Name:   "Nike Air Force 1",
		Price:  decimal.NewFromInt(500000),
		Sizes:  []string{"38", "39"},
		Colors: []string{"đen", "trắng"},
	}
}

func loaded(t *testing.T, store *fakeStore, opts ...Option) (*Reconciler, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	r := New(store, append([]Option{WithNotifier(rec)}, opts...)...)
	require.NoError(t, r.Load(context.Background()))
	return r, rec
}

func TestAddToCartScenario(t *testing.T) {
	srv, _ := storetest.NewServer(t, storetest.DefaultSeed)
	api := client.New(srv.URL, client.WithNotifier(notify.Discard))
	ctx := context.Background()

	product, err := api.GetProduct(ctx, "1")
	require.NoError(t, err)

	r := New(api, WithNotifier(notify.Discard))
	require.NoError(t, r.Load(ctx))
	assert.Empty(t, r.Items())

	line, err := r.AddToCart(ctx, *product, "38", "đen")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1"), line.ProductID)
	assert.Equal(t, "38", line.Size)
	assert.Equal(t, "đen", line.Color)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, decimal.NewFromInt(500000).Equal(line.Price.Decimal))
	assert.Equal(t, Present, r.State(line.ID))

	server, err := api.ListCartItems(ctx)
	require.NoError(t, err)
	require.Len(t, server, 1)
	assert.Equal(t, line.ID, server[0].ID)
}

func TestIncreaseScenario(t *testing.T) {
	srv, _ := storetest.NewServer(t, `{
		"cart": [{"id": 10, "productId": 1, "name": "Nike Air Force 1", "price": 500000,
		          "size": "38", "color": "đen", "quantity": 2}]
	}`)
	api := client.New(srv.URL, client.WithNotifier(notify.Discard))
	ctx := context.Background()

	r := New(api, WithNotifier(notify.Discard))
	require.NoError(t, r.Load(ctx))

	line, err := r.IncreaseQuantity(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, models.ID("10"), line.ID)
	assert.Equal(t, 3, line.Quantity)

	total, err := r.Total()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500000).Equal(total), total.String())
}

func TestAddToCartRequiresSizeAndColor(t *testing.T) {
	tests := []struct {
		name, size, color string
	}{
		{"no size", "", "đen"},
		{"no color", "38", ""},
		{"blank", "  ", "  "},
		{"size not offered", "45", "đen"},
		{"color not offered", "38", "vàng"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r, rec := loaded(t, store)

			_, err := r.AddToCart(context.Background(), shoe(), tt.size, tt.color)
			assert.ErrorIs(t, err, models.ErrValidation)
			adds, _, _ := store.counts()
			assert.Zero(t, adds)
			assert.Empty(t, r.Items())
			assert.Len(t, rec.Notices(), 1)
		})
	}

	store := newFakeStore()
	r, _ := loaded(t, store)
	_, err := r.AddToCart(context.Background(), shoe(), "39", "trắng")
	require.NoError(t, err)
	adds, _, _ := store.counts()
	assert.Equal(t, 1, adds)
	assert.Len(t, r.Items(), 1)
}

func TestAddToCartWithoutOfferedValues(t *testing.T) {
	store := newFakeStore()
	r, _ := loaded(t, store)

	p := shoe()
	p.Sizes, p.Colors = nil, nil
	_, err := r.AddToCart(context.Background(), p, "42", "xanh")
	require.NoError(t, err)
}

func TestAddToCartFailureShowsNothing(t *testing.T) {
	store := newFakeStore()
	r, _ := loaded(t, store)
	store.fail = errNetwork

	line, err := r.AddToCart(context.Background(), shoe(), "38", "đen")
	assert.Nil(t, line)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Empty(t, r.Items())
	assert.Empty(t, r.PendingAdds())
}

func TestPendingAddIsTracked(t *testing.T) {
	store := newFakeStore()
	r, _ := loaded(t, store)

	release := make(chan struct{})
	blocking := &blockingAdds{fakeStore: store, release: release}
	r.store = blocking

	done := make(chan error, 1)
	go func() {
		_, err := r.AddToCart(context.Background(), shoe(), "38", "đen")
		done <- err
	}()

	require.Eventually(t, func() bool { return len(r.PendingAdds()) == 1 }, time.Second, 5*time.Millisecond)
	pending := r.PendingAdds()[0]
	assert.Equal(t, models.ID("1"), pending.ProductID)
	assert.NotEmpty(t, pending.Token)
	assert.Empty(t, r.Items())

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, r.PendingAdds())
	assert.Len(t, r.Items(), 1)
}

type blockingAdds struct {
	*fakeStore
	release chan struct{}
}

func (b *blockingAdds) AddCartItem(ctx context.Context, item models.CartItem) (*models.CartItem, error) {
	<-b.release
	return b.fakeStore.AddCartItem(ctx, item)
}

func TestDecreaseAtOneIsNoop(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(500000), Quantity: 1})
	r, rec := loaded(t, store)

	_, err := r.DecreaseQuantity(context.Background(), "10")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, updates, _ := store.counts()
	assert.Zero(t, updates)
	item, ok := r.Item("10")
	require.True(t, ok)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, Present, r.State("10"))

	notice, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "La quantité minimale est 1", notice.Message)
}

func TestQuantityNeverBelowOne(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 3})
	r, _ := loaded(t, store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r.DecreaseQuantity(ctx, "10")
		item, _ := r.Item("10")
		assert.GreaterOrEqual(t, item.Quantity, 1)
	}
	item, _ := r.Item("10")
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, store.quantity("10"))
	_, updates, _ := store.counts()
	assert.Equal(t, 2, updates)
}

func TestFailedUpdateLeavesLineUnchanged(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(500000), Quantity: 2})
	r, _ := loaded(t, store)
	store.fail = errNetwork

	_, err := r.IncreaseQuantity(context.Background(), "10")
	assert.ErrorIs(t, err, models.ErrTransport)

	item, _ := r.Item("10")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, Present, r.State("10"))
}

func TestNoLocalChangeBeforeAcknowledgment(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(500000), Quantity: 2})
	r, _ := loaded(t, store)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.setHook(func(ctx context.Context, item models.CartItem) error {
		close(entered)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.IncreaseQuantity(context.Background(), "10")
		done <- err
	}()

	<-entered
	item, _ := r.Item("10")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, PendingMutate, r.State("10"))

	close(release)
	require.NoError(t, <-done)
	item, _ = r.Item("10")
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, Present, r.State("10"))
}

func TestConcurrentChangesAreSerialized(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 1})
	r, _ := loaded(t, store)
	store.setHook(func(ctx context.Context, item models.CartItem) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncreaseQuantity(context.Background(), "10")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	item, _ := r.Item("10")
	assert.Equal(t, 11, item.Quantity)
	assert.Equal(t, 11, store.quantity("10"))
	assert.Equal(t, int32(1), store.maxSeen.Load())
	assert.Zero(t, r.locks.size())
}

func TestSlowIncreaseDoesNotOverwriteLaterDecrease(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	store.setHook(func(ctx context.Context, item models.CartItem) error {
		entered <- struct{}{}
		if item.Quantity == 3 {
			<-release
		}
		return nil
	})

	incDone := make(chan error, 1)
	go func() {
		_, err := r.IncreaseQuantity(context.Background(), "10")
		incDone <- err
	}()
	<-entered

	decDone := make(chan error, 1)
	go func() {
		_, err := r.DecreaseQuantity(context.Background(), "10")
		decDone <- err
	}()

	// la diminution attend la fin de l'augmentation
	select {
	case <-entered:
		t.Fatal("deux mises à jour en vol sur la même ligne")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-incDone)
	require.NoError(t, <-decDone)

	item, _ := r.Item("10")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 2, store.quantity("10"))
}

func TestRequestTimeout(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store, WithTimeout(30*time.Millisecond))

	store.setHook(func(ctx context.Context, item models.CartItem) error {
		<-ctx.Done()
		return fmt.Errorf("%w: %v", models.ErrTimeout, ctx.Err())
	})

	_, err := r.IncreaseQuantity(context.Background(), "10")
	assert.ErrorIs(t, err, models.ErrTimeout)
	item, _ := r.Item("10")
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, Present, r.State("10"))
}

func TestWaitingForLineTimesOut(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, rec := loaded(t, store, WithTimeout(50*time.Millisecond))

	entered := make(chan struct{})
	release := make(chan struct{})
	store.setHook(func(ctx context.Context, item models.CartItem) error {
		close(entered)
		<-release
		return nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := r.IncreaseQuantity(context.Background(), "10")
		first <- err
	}()
	<-entered

	_, err := r.IncreaseQuantity(context.Background(), "10")
	assert.ErrorIs(t, err, models.ErrTimeout)
	notice, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, notice.Level)

	close(release)
	require.NoError(t, <-first)
}

func TestCloseDiscardsLateResult(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.setHook(func(ctx context.Context, item models.CartItem) error {
		close(entered)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.IncreaseQuantity(context.Background(), "10")
		done <- err
	}()
	<-entered

	r.Close()
	close(release)
	assert.ErrorIs(t, <-done, models.ErrDiscarded)

	item, _ := r.Item("10")
	assert.Equal(t, 2, item.Quantity)

	_, err := r.AddToCart(context.Background(), shoe(), "38", "đen")
	assert.ErrorIs(t, err, models.ErrDiscarded)
	assert.ErrorIs(t, r.Load(context.Background()), models.ErrDiscarded)
}

func TestRemovalNeedsConfirmation(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store)
	ctx := context.Background()

	assert.ErrorIs(t, r.ConfirmRemoval(ctx, "10"), models.ErrConfirmationRequired)

	require.NoError(t, r.RequestRemoval("10"))
	assert.True(t, r.RemovalRequested("10"))
	r.CancelRemoval("10")
	assert.ErrorIs(t, r.ConfirmRemoval(ctx, "10"), models.ErrConfirmationRequired)

	_, _, deletes := store.counts()
	assert.Zero(t, deletes)

	require.NoError(t, r.RequestRemoval("10"))
	require.NoError(t, r.ConfirmRemoval(ctx, "10"))
	assert.Equal(t, Absent, r.State("10"))
	assert.Empty(t, r.Items())

	assert.ErrorIs(t, r.RequestRemoval("10"), models.ErrNotFound)
}

func TestFailedRemovalKeepsLine(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store)
	store.fail = errNetwork

	require.NoError(t, r.RequestRemoval("10"))
	assert.ErrorIs(t, r.ConfirmRemoval(context.Background(), "10"), models.ErrTransport)
	assert.Equal(t, Present, r.State("10"))
	assert.False(t, r.RemovalRequested("10"))
	assert.Len(t, r.Items(), 1)
}

func TestLoadFailureKeepsView(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Price: price(100), Quantity: 2})
	r, _ := loaded(t, store)
	store.fail = errNetwork

	assert.Error(t, r.Load(context.Background()))
	assert.Len(t, r.Items(), 1)
}

func TestUnknownLine(t *testing.T) {
	r, _ := loaded(t, newFakeStore())
	_, err := r.IncreaseQuantity(context.Background(), "404")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, Absent, r.State("404"))
}

func TestComputeTotalIsOrderIndependent(t *testing.T) {
	items := []models.CartItem{
		{ID: "a", Price: price(500000), Quantity: 2},
		{ID: "b", Price: decimal.NewNullDecimal(decimal.RequireFromString("199999.5")), Quantity: 3},
		{ID: "c", Price: price(1), Quantity: 7},
	}
	want := decimal.RequireFromString("1600005.5")

	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range perms {
		shuffled := []models.CartItem{items[perm[0]], items[perm[1]], items[perm[2]]}
		total, err := ComputeTotal(shuffled)
		require.NoError(t, err)
		assert.True(t, want.Equal(total), total.String())
	}

	total, err := ComputeTotal(nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestComputeTotalRejectsInvalidLines(t *testing.T) {
	_, err := ComputeTotal([]models.CartItem{{ID: "a", Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrInvalidLine)
	assert.Contains(t, err.Error(), "ligne a")

	_, err = ComputeTotal([]models.CartItem{{ID: "b", Price: price(10), Quantity: 0}})
	assert.ErrorIs(t, err, models.ErrInvalidLine)

	assert.False(t, errors.Is(err, models.ErrValidation))
}

// slowLoad lance un Load dont la réponse, lue immédiatement, n'est rendue
// qu'après release
func slowLoad(t *testing.T, r *Reconciler, store *fakeStore) (release func(), done <-chan error) {
	t.Helper()
	read := make(chan struct{})
	hold := make(chan struct{})
	var once sync.Once
	store.mu.Lock()
	store.listHook = func() {
		once.Do(func() { close(read) })
		<-hold
	}
	store.mu.Unlock()

	result := make(chan error, 1)
	go func() { result <- r.Load(context.Background()) }()
	<-read

	store.mu.Lock()
	store.listHook = nil
	store.mu.Unlock()
	return func() { close(hold) }, result
}

func TestLoadKeepsIncreaseConfirmedDuringRequest(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Name: "Nike Air Force 1", Price: price(500000), Size: "38", Color: "đen", Quantity: 2})
	r, _ := loaded(t, store)

	release, done := slowLoad(t, r, store)

	updated, err := r.IncreaseQuantity(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	release()
	require.NoError(t, <-done)

	item, ok := r.Item("10")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 3, store.quantity("10"))

	// le prochain + part bien de 3
	_, err = r.IncreaseQuantity(context.Background(), "10")
	require.NoError(t, err)
	assert.Equal(t, 4, store.quantity("10"))
}

func TestLoadDoesNotResurrectRemovedLine(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Name: "Nike Air Force 1", Price: price(500000), Size: "38", Color: "đen", Quantity: 2})
	r, _ := loaded(t, store)

	release, done := slowLoad(t, r, store)

	require.NoError(t, r.RequestRemoval("10"))
	require.NoError(t, r.ConfirmRemoval(context.Background(), "10"))

	release()
	require.NoError(t, <-done)

	assert.Empty(t, r.Items())
	assert.Equal(t, Absent, r.State("10"))

	// un rechargement lancé après la suppression ne garde aucune trace
	require.NoError(t, r.Load(context.Background()))
	assert.Empty(t, r.Items())
	r.mu.Lock()
	assert.Empty(t, r.removed)
	r.mu.Unlock()
}

func TestLoadKeepsLineAddedDuringRequest(t *testing.T) {
	store := newFakeStore()
	r, _ := loaded(t, store)

	release, done := slowLoad(t, r, store)

	created, err := r.AddToCart(context.Background(), shoe(), "38", "đen")
	require.NoError(t, err)

	release()
	require.NoError(t, <-done)

	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, Present, r.State(created.ID))
}

func TestOlderLoadNeverOverwritesNewer(t *testing.T) {
	store := newFakeStore(models.CartItem{ID: "10", Name: "Nike Air Force 1", Price: price(500000), Size: "38", Color: "đen", Quantity: 2})
	r, _ := loaded(t, store)

	release, done := slowLoad(t, r, store)

	// modification faite ailleurs, vue par un second rechargement
	store.mu.Lock()
	it := store.items["10"]
	it.Quantity = 5
	store.items["10"] = it
	store.mu.Unlock()
	require.NoError(t, r.Load(context.Background()))

	release()
	require.NoError(t, <-done)

	item, ok := r.Item("10")
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity)
}
