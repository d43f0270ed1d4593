// Package cart garde la vue locale du panier en accord avec le store.
// Toute mutation est confirmée par le serveur avant d'être appliquée
// localement, et les mutations d'une même ligne passent une par une.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
)

// Store est la partie du client distant utilisée par le panier
type Store interface {
	AddCartItem(ctx context.Context, item models.CartItem) (*models.CartItem, error)
	ListCartItems(ctx context.Context) ([]models.CartItem, error)
	UpdateCartItem(ctx context.Context, id models.ID, item models.CartItem) (*models.CartItem, error)
	DeleteCartItem(ctx context.Context, id models.ID) error
}

type State string

const (
	Absent        State = "absent"
	PendingAdd    State = "pending-add"
	Present       State = "present"
	PendingMutate State = "pending-mutate"
	PendingRemove State = "pending-remove"
)

const DefaultTimeout = 15 * time.Second

// PendingAddition décrit un ajout envoyé mais pas encore confirmé
type PendingAddition struct {
	Token     string
	ProductID models.ID
	Size      string
	Color     string
	StartedAt time.Time
}

type line struct {
	item             models.CartItem
	state            State
	removalRequested bool
	// génération de la dernière modification confirmée
	committed uint64
}

type Reconciler struct {
	store    Store
	notifier notify.Notifier
	timeout  time.Duration
	locks    *lineLocks

	mu      sync.Mutex
	order   []models.ID
	lines   map[models.ID]*line
	pending map[string]PendingAddition
	closed  bool

	// gen avance à chaque modification confirmée par le serveur. Un
	// rechargement ne remplace jamais une ligne confirmée après son envoi.
	gen         uint64
	removed     map[models.ID]uint64
	loading     int
	loadIssued  uint64
	loadApplied uint64
}

type Option func(*Reconciler)

func WithNotifier(n notify.Notifier) Option {
	return func(r *Reconciler) { r.notifier = notify.Or(n) }
}

// WithTimeout borne chaque opération, attente du verrou de ligne comprise
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		notifier: notify.LogNotifier{},
		timeout:  DefaultTimeout,
		locks:    newLineLocks(),
		lines:    make(map[models.ID]*line),
		pending:  make(map[string]PendingAddition),
		removed:  make(map[models.ID]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load remplace la vue locale par le panier du serveur. En cas d'échec la
// vue précédente est conservée. Les lignes ajoutées, modifiées ou
// supprimées pendant la requête gardent leur état local, et la réponse
// d'un rechargement plus ancien qu'un autre déjà appliqué est ignorée.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return models.ErrDiscarded
	}
	r.loadIssued++
	ticket := r.loadIssued
	since := r.gen
	r.loading++
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	items, err := r.store.ListCartItems(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading--
	if r.closed {
		return models.ErrDiscarded
	}
	if err != nil {
		return err
	}
	if ticket < r.loadApplied {
		return nil
	}
	r.loadApplied = ticket

	lines := make(map[models.ID]*line, len(items))
	order := make([]models.ID, 0, len(items))
	for _, it := range items {
		if it.ID.IsZero() {
			log.Printf("⚠️ Ligne de panier sans id ignorée (%s)", it.Name)
			continue
		}
		if at, gone := r.removed[it.ID]; gone && at > since {
			continue
		}
		l := &line{item: it, state: Present}
		if prev, ok := r.lines[it.ID]; ok {
			if prev.committed > since {
				l = prev
			} else {
				// une mutation en cours garde son état jusqu'à sa réponse
				l.state = prev.state
				l.removalRequested = prev.removalRequested
				l.committed = prev.committed
			}
		}
		if _, dup := lines[it.ID]; !dup {
			order = append(order, it.ID)
		}
		lines[it.ID] = l
	}
	// lignes confirmées après l'envoi de la requête, absentes de la réponse
	for _, id := range r.order {
		prev := r.lines[id]
		if _, seen := lines[id]; !seen && prev.committed > since {
			lines[id] = prev
			order = append(order, id)
		}
	}
	r.lines = lines
	r.order = order

	for id, at := range r.removed {
		if at <= since || r.loading == 0 {
			delete(r.removed, id)
		}
	}
	return nil
}

// commit renvoie la génération d'une modification confirmée. Appelé sous mu.
func (r *Reconciler) commit() uint64 {
	r.gen++
	return r.gen
}

// AddToCart ajoute une ligne quantité 1. La taille et la couleur sont
// obligatoires et doivent faire partie des choix du produit. La ligne
// n'apparaît qu'après confirmation du serveur.
func (r *Reconciler) AddToCart(ctx context.Context, p models.Product, size, color string) (*models.CartItem, error) {
	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)
	if size == "" || color == "" {
		notify.Warn(r.notifier, "Ajout au panier", "Veuillez choisir une taille et une couleur")
		return nil, fmt.Errorf("%w: taille et couleur requises", models.ErrValidation)
	}
	if !models.Offers(p.Sizes, size) || !models.Offers(p.Colors, color) {
		notify.Warn(r.notifier, "Ajout au panier", "Cette taille ou cette couleur n'est pas disponible")
		return nil, fmt.Errorf("%w: %s/%s non proposé pour %s", models.ErrValidation, size, color, p.Name)
	}

	token := uuid.NewString()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, models.ErrDiscarded
	}
	r.pending[token] = PendingAddition{Token: token, ProductID: p.ID, Size: size, Color: color, StartedAt: time.Now()}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	created, err := r.store.AddCartItem(ctx, models.NewCartItem(p, size, color))

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, token)
	if r.closed {
		return nil, models.ErrDiscarded
	}
	if err != nil {
		return nil, err
	}
	if created.ID.IsZero() {
		notify.Error(r.notifier, "Ajout au panier", "Réponse du serveur incomplète")
		return nil, fmt.Errorf("%w: ligne créée sans id", models.ErrTransport)
	}

	if _, exists := r.lines[created.ID]; !exists {
		r.order = append(r.order, created.ID)
	}
	r.lines[created.ID] = &line{item: *created, state: Present, committed: r.commit()}
	item := *created
	return &item, nil
}

func (r *Reconciler) IncreaseQuantity(ctx context.Context, id models.ID) (*models.CartItem, error) {
	return r.changeQuantity(ctx, id, 1)
}

// DecreaseQuantity refuse de descendre sous 1, sans appel au serveur.
// Supprimer une ligne passe par RequestRemoval puis ConfirmRemoval.
func (r *Reconciler) DecreaseQuantity(ctx context.Context, id models.ID) (*models.CartItem, error) {
	return r.changeQuantity(ctx, id, -1)
}

func (r *Reconciler) changeQuantity(ctx context.Context, id models.ID, delta int) (*models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	release, err := r.acquire(ctx, id, "Quantité")
	if err != nil {
		return nil, err
	}
	defer release()

	// la nouvelle quantité part de la dernière valeur confirmée, lue
	// une fois la ligne acquise
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, models.ErrDiscarded
	}
	l, ok := r.lines[id]
	if !ok {
		r.mu.Unlock()
		notify.Warn(r.notifier, "Quantité", "Cet article n'est plus dans le panier")
		return nil, fmt.Errorf("%w: ligne %s", models.ErrNotFound, id)
	}
	next := l.item
	next.Quantity += delta
	if next.Quantity < 1 {
		r.mu.Unlock()
		notify.Warn(r.notifier, "Quantité", "La quantité minimale est 1")
		return nil, fmt.Errorf("%w: la quantité minimale est 1", models.ErrValidation)
	}
	l.state = PendingMutate
	r.mu.Unlock()

	updated, err := r.store.UpdateCartItem(ctx, id, next)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, models.ErrDiscarded
	}
	l, ok = r.lines[id]
	if err != nil {
		if ok {
			l.state = Present
		}
		return nil, err
	}

	committed := *updated
	if committed.ID.IsZero() {
		committed.ID = id
	}
	if committed.Quantity < 1 {
		// réponse sans quantité : on garde ce qui a été envoyé
		committed = next
	}
	if !ok {
		// rechargement pendant la requête : la ligne reste visible
		l = &line{}
		r.lines[id] = l
		r.order = append(r.order, id)
	}
	l.item = committed
	l.state = Present
	l.committed = r.commit()
	return &committed, nil
}

// RequestRemoval enregistre l'intention de suppression. Rien n'est envoyé
// avant ConfirmRemoval.
func (r *Reconciler) RequestRemoval(id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return models.ErrDiscarded
	}
	l, ok := r.lines[id]
	if !ok {
		return fmt.Errorf("%w: ligne %s", models.ErrNotFound, id)
	}
	l.removalRequested = true
	return nil
}

func (r *Reconciler) CancelRemoval(id models.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lines[id]; ok {
		l.removalRequested = false
	}
}

// ConfirmRemoval supprime la ligne côté serveur puis localement
func (r *Reconciler) ConfirmRemoval(ctx context.Context, id models.ID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	release, err := r.acquire(ctx, id, "Suppression")
	if err != nil {
		return err
	}
	defer release()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return models.ErrDiscarded
	}
	l, ok := r.lines[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: ligne %s", models.ErrNotFound, id)
	}
	if !l.removalRequested {
		r.mu.Unlock()
		return fmt.Errorf("%w: suppression de la ligne %s", models.ErrConfirmationRequired, id)
	}
	l.state = PendingRemove
	r.mu.Unlock()

	err = r.store.DeleteCartItem(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return models.ErrDiscarded
	}
	if err != nil {
		if l, ok := r.lines[id]; ok {
			l.state = Present
			l.removalRequested = false
		}
		return err
	}
	at := r.commit()
	if r.loading > 0 {
		r.removed[id] = at
	}
	r.remove(id)
	return nil
}

func (r *Reconciler) remove(id models.ID) {
	delete(r.lines, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// acquire attend le verrou de la ligne dans la limite du délai
func (r *Reconciler) acquire(ctx context.Context, id models.ID, action string) (func(), error) {
	release, err := r.locks.acquire(ctx, id)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		notify.Error(r.notifier, action, "Opération expirée, veuillez réessayer")
		return nil, fmt.Errorf("%w: attente de la ligne %s", models.ErrTimeout, id)
	}
	return nil, err
}

// Items renvoie les lignes confirmées dans l'ordre d'ajout
func (r *Reconciler) Items() []models.CartItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.CartItem, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.lines[id].item)
	}
	return out
}

func (r *Reconciler) Item(id models.ID) (models.CartItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok {
		return models.CartItem{}, false
	}
	return l.item, true
}

func (r *Reconciler) State(id models.ID) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok {
		return Absent
	}
	return l.state
}

// RemovalRequested indique qu'une suppression attend confirmation
func (r *Reconciler) RemovalRequested(id models.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	return ok && l.removalRequested
}

// PendingAdds liste les ajouts en attente de confirmation
func (r *Reconciler) PendingAdds() []PendingAddition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PendingAddition, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	return out
}

func (r *Reconciler) Total() (decimal.Decimal, error) {
	return ComputeTotal(r.Items())
}

// Close marque la vue comme fermée : les réponses encore en vol sont
// ignorées et les appels suivants renvoient ErrDiscarded.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Reconciler) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return models.ErrDiscarded
	}
	return nil
}
