package client

import (
	"context"
	"net/http"

	"sneaker_store/internal/models"
)

func (c *Client) AddCartItem(ctx context.Context, item models.CartItem) (*models.CartItem, error) {
	item.ID = ""
	var created models.CartItem
	if err := c.do(ctx, http.MethodPost, c.cartPath, nil, item, &created); err != nil {
		return nil, c.fail("Ajout au panier", "Impossible d'ajouter au panier", err)
	}
	return &created, nil
}

// ListCartItems : même contrat que ListProducts, (nil, err) en cas d'échec
func (c *Client) ListCartItems(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := c.do(ctx, http.MethodGet, c.cartPath, nil, nil, &items); err != nil {
		return nil, c.fail("Panier", "Impossible de récupérer le panier", err)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, id models.ID, item models.CartItem) (*models.CartItem, error) {
	item.ID = id
	var updated models.CartItem
	if err := c.do(ctx, http.MethodPut, itemPath(c.cartPath, id), nil, item, &updated); err != nil {
		return nil, c.fail("Mise à jour du panier", "Impossible de mettre à jour le panier", err)
	}
	return &updated, nil
}

func (c *Client) DeleteCartItem(ctx context.Context, id models.ID) error {
	if err := c.do(ctx, http.MethodDelete, itemPath(c.cartPath, id), nil, nil, nil); err != nil {
		return c.fail("Suppression du panier", "Impossible de retirer l'article du panier", err)
	}
	return nil
}
