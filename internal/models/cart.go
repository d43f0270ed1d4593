package models

import "github.com/shopspring/decimal"

// CartItem est une ligne de panier. Le prix est figé au moment de l'ajout
// et n'est jamais relu depuis le produit.
type CartItem struct {
	ID        ID                  `json:"id,omitempty"`
	ProductID ID                  `json:"productId"`
	Name      string              `json:"name"`
	Image     string              `json:"image,omitempty"`
	Price     decimal.NullDecimal `json:"price"`
	Size      string              `json:"size"`
	Color     string              `json:"color"`
	Quantity  int                 `json:"quantity"`
}

// NewCartItem prépare la ligne envoyée au serveur lors d'un ajout
func NewCartItem(p Product, size, color string) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     decimal.NewNullDecimal(p.Price),
		Size:      size,
		Color:     color,
		Quantity:  1,
	}
}

// Subtotal renvoie prix × quantité, ou false si la ligne est incomplète
func (it CartItem) Subtotal() (decimal.Decimal, bool) {
	if !it.Price.Valid || it.Quantity < 1 {
		return decimal.Zero, false
	}
	return it.Price.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity))), true
}
