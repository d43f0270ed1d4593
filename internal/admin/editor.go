// Package admin gère l'ajout, la modification et la suppression de
// produits depuis l'écran de gestion.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
)

var ErrNoBuffer = errors.New("aucun produit en cours d'édition")

// Products est la partie du client distant utilisée par l'éditeur
type Products interface {
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id models.ID, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id models.ID) error
}

// Refresher est rechargé après chaque modification réussie
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Editor struct {
	products Products
	catalog  Refresher
	notifier notify.Notifier

	// saveMu : un seul enregistrement ou suppression à la fois
	saveMu sync.Mutex

	mu            sync.Mutex
	buffer        *Buffer
	pendingDelete models.ID
}

func NewEditor(products Products, catalog Refresher, notifier notify.Notifier) *Editor {
	return &Editor{products: products, catalog: catalog, notifier: notify.Or(notifier)}
}

// Edit ouvre le formulaire sur un produit existant
func (e *Editor) Edit(p models.Product) Buffer {
	b := FromProduct(p)
	e.mu.Lock()
	e.buffer = &b
	e.mu.Unlock()
	return b
}

// New ouvre un formulaire vide
func (e *Editor) New() Buffer {
	e.mu.Lock()
	e.buffer = &Buffer{}
	e.mu.Unlock()
	return Buffer{}
}

// SetBuffer remplace le contenu du formulaire ouvert (saisie utilisateur)
func (e *Editor) SetBuffer(b Buffer) {
	e.mu.Lock()
	e.buffer = &b
	e.mu.Unlock()
}

func (e *Editor) Buffer() (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return Buffer{}, false
	}
	return *e.buffer, true
}

// Discard ferme le formulaire sans enregistrer
func (e *Editor) Discard() {
	e.mu.Lock()
	e.buffer = nil
	e.mu.Unlock()
}

// Save crée ou met à jour selon que le formulaire a un id. En cas
// d'échec le formulaire est conservé pour permettre une nouvelle tentative.
func (e *Editor) Save(ctx context.Context) (*models.Product, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	b, ok := e.Buffer()
	if !ok {
		return nil, ErrNoBuffer
	}
	p, err := b.Product()
	if err != nil {
		notify.Warn(e.notifier, "Gestion des produits", "Veuillez saisir le nom et le prix du produit")
		return nil, err
	}

	var saved *models.Product
	var message string
	if b.ID.IsZero() {
		saved, err = e.products.CreateProduct(ctx, p)
		message = "Produit ajouté"
	} else {
		saved, err = e.products.UpdateProduct(ctx, b.ID, p)
		message = "Produit modifié"
	}
	if err != nil {
		return nil, err
	}

	e.Discard()
	log.Printf("✅ %s : %s (%s)", message, saved.Name, saved.ID)
	e.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Action: "Gestion des produits", Message: message})
	e.refresh(ctx)
	return saved, nil
}

// RequestDelete demande la confirmation avant suppression
func (e *Editor) RequestDelete(id models.ID) {
	e.mu.Lock()
	e.pendingDelete = id
	e.mu.Unlock()
}

func (e *Editor) CancelDelete() {
	e.mu.Lock()
	e.pendingDelete = ""
	e.mu.Unlock()
}

// PendingDelete renvoie le produit dont la suppression attend confirmation
func (e *Editor) PendingDelete() (models.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingDelete, !e.pendingDelete.IsZero()
}

// ConfirmDelete supprime le produit demandé puis recharge le catalogue
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	id := e.pendingDelete
	e.pendingDelete = ""
	e.mu.Unlock()
	if id.IsZero() {
		return fmt.Errorf("%w: aucune suppression demandée", models.ErrConfirmationRequired)
	}

	if err := e.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.Printf("✅ Produit supprimé : %s", id)
	e.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Action: "Gestion des produits", Message: "Produit supprimé"})
	e.refresh(ctx)
	return nil
}

// refresh recharge le catalogue ; un échec ici n'annule pas la
// modification déjà enregistrée
func (e *Editor) refresh(ctx context.Context) {
	if e.catalog == nil {
		return
	}
	if err := e.catalog.Refresh(ctx); err != nil {
		log.Printf("⚠️ Catalogue non rechargé après modification: %v", err)
	}
}
