package handlers

import (
	"github.com/shopspring/decimal"

	"sneaker_store/internal/database"
)

type productInput struct {
	Name   string          `json:"name" binding:"required"`
	Price  decimal.Decimal `json:"price"`
	Sizes  []string        `json:"sizes"`
	Colors []string        `json:"colors"`
}

// ValidateProduct : nom requis, prix numérique et non négatif
func ValidateProduct(doc database.Document) error {
	var in productInput
	if err := validateInto(doc, &in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return errNegativePrice
	}
	return nil
}

func NewProductsResource(store database.Store) Resource {
	return Resource{Store: store, Collection: database.Products, Validate: ValidateProduct}
}
