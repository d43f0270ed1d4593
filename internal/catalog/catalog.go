// Package catalog garde la dernière liste de produits connue et prévient
// les écrans abonnés à chaque remplacement.
package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"sneaker_store/internal/models"
)

// LoadTimeout borne le premier chargement partagé, indépendant des appelants
const LoadTimeout = 30 * time.Second

// Source est la partie du client distant utilisée par le catalogue
type Source interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type Catalog struct {
	source Source

	mu       sync.RWMutex
	products []models.Product
	loaded   bool
	applied  uint64

	// ordre d'émission des requêtes, pour ne jamais remplacer une liste
	// récente par une réponse plus ancienne
	issued atomic.Uint64
	group  singleflight.Group

	// un seul goroutine distribue à la fois ; dirty signale une liste
	// appliquée pendant la distribution en cours
	pubMu       sync.Mutex
	dispatching bool
	dirty       bool

	subMu  sync.Mutex
	subs   map[int]func([]models.Product)
	nextID int
}

func New(source Source) *Catalog {
	return &Catalog{
		source: source,
		subs:   make(map[int]func([]models.Product)),
	}
}

// Refresh recharge toute la liste. En cas d'échec la liste précédente est
// conservée et l'erreur renvoyée.
func (c *Catalog) Refresh(ctx context.Context) error {
	ticket := c.issued.Add(1)

	products, err := c.source.ListProducts(ctx)
	if err != nil {
		return err
	}
	c.apply(ticket, products)
	return nil
}

// Load renvoie la liste, en la chargeant au premier appel. Les chargements
// simultanés ne font qu'une seule requête, qui continue même si l'appelant
// qui l'a lancée abandonne.
func (c *Catalog) Load(ctx context.Context) ([]models.Product, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return c.Products(), nil
	}

	ch := c.group.DoChan("load", func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		return nil, c.Refresh(shared)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
	}
	return c.Products(), nil
}

func (c *Catalog) apply(ticket uint64, products []models.Product) {
	c.mu.Lock()
	if ticket < c.applied {
		c.mu.Unlock()
		return
	}
	c.applied = ticket
	c.products = products
	c.loaded = true
	c.mu.Unlock()

	c.publish()
}

// publish distribue la liste courante aux abonnés. Un abonné peut appeler
// Refresh depuis son callback : la nouvelle liste est distribuée au tour
// suivant par le goroutine déjà en train de distribuer.
func (c *Catalog) publish() {
	c.pubMu.Lock()
	c.dirty = true
	if c.dispatching {
		c.pubMu.Unlock()
		return
	}
	c.dispatching = true
	for c.dirty {
		c.dirty = false
		c.pubMu.Unlock()

		products := c.Products()
		c.subMu.Lock()
		subs := make([]func([]models.Product), 0, len(c.subs))
		for _, fn := range c.subs {
			subs = append(subs, fn)
		}
		c.subMu.Unlock()

		for _, fn := range subs {
			fn(copyProducts(products))
		}
		c.pubMu.Lock()
	}
	c.dispatching = false
	c.pubMu.Unlock()
}

// Products renvoie une copie de la liste courante
func (c *Catalog) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyProducts(c.products)
}

// Loaded indique si au moins un chargement a réussi
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Get(id models.ID) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Subscribe appelle fn après chaque remplacement de la liste, toujours avec
// une liste au moins aussi récente que la précédente. Des remplacements
// rapprochés peuvent n'être distribués qu'une fois.
func (c *Catalog) Subscribe(fn func([]models.Product)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func copyProducts(products []models.Product) []models.Product {
	if products == nil {
		return []models.Product{}
	}
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
