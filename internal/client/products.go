package client

import (
	"context"
	"fmt"
	"net/http"

	"sneaker_store/internal/models"
)

// ListProducts renvoie tout le catalogue. En cas d'échec : (nil, err),
// jamais une liste vide qui se confondrait avec un catalogue vide.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, ProductsPath, nil, nil, &products); err != nil {
		return nil, c.fail("Catalogue", "Impossible de se connecter au serveur", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id models.ID) (*models.Product, error) {
	if id.IsZero() {
		return nil, c.fail("Produit", "Impossible de récupérer le produit", fmt.Errorf("%w: id manquant", models.ErrValidation))
	}
	var p models.Product
	if err := c.do(ctx, http.MethodGet, itemPath(ProductsPath, id), nil, nil, &p); err != nil {
		return nil, c.fail("Produit", "Impossible de récupérer le produit", err)
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = ""
	var created models.Product
	if err := c.do(ctx, http.MethodPost, ProductsPath, nil, p, &created); err != nil {
		return nil, c.fail("Ajout produit", "Impossible d'ajouter le produit", err)
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id models.ID, p models.Product) (*models.Product, error) {
	if id.IsZero() {
		return nil, c.fail("Modification produit", "Impossible de modifier le produit", fmt.Errorf("%w: id manquant", models.ErrValidation))
	}
	p.ID = id
	var updated models.Product
	if err := c.do(ctx, http.MethodPut, itemPath(ProductsPath, id), nil, p, &updated); err != nil {
		return nil, c.fail("Modification produit", "Impossible de modifier le produit", err)
	}
	return &updated, nil
}

// DeleteProduct renvoie nil en cas de succès
func (c *Client) DeleteProduct(ctx context.Context, id models.ID) error {
	if err := c.do(ctx, http.MethodDelete, itemPath(ProductsPath, id), nil, nil, nil); err != nil {
		return c.fail("Suppression produit", "Impossible de supprimer le produit", err)
	}
	return nil
}
