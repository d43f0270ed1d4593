package handlers

import (
	"errors"

	"github.com/shopspring/decimal"

	"sneaker_store/internal/database"
)

var (
	errNegativePrice  = errors.New("prix négatif")
	errMissingProduct = errors.New("productId requis")
)

type cartInput struct {
	ProductID interface{}     `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size" binding:"required"`
	Color     string          `json:"color" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

// ValidateCartItem : taille, couleur et quantité ≥ 1 obligatoires
func ValidateCartItem(doc database.Document) error {
	var in cartInput
	if err := validateInto(doc, &in); err != nil {
		return err
	}
	if in.ProductID == nil || fieldString(in.ProductID) == "" {
		return errMissingProduct
	}
	if in.Price.IsNegative() {
		return errNegativePrice
	}
	return nil
}

func NewCartResource(store database.Store) Resource {
	return Resource{Store: store, Collection: database.Cart, Validate: ValidateCartItem}
}
