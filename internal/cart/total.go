package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"sneaker_store/internal/models"
)

// ComputeTotal additionne prix × quantité. Une ligne sans prix ou avec une
// quantité inférieure à 1 est une erreur, jamais comptée comme zéro.
func ComputeTotal(items []models.CartItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range items {
		if !it.Price.Valid {
			return decimal.Zero, fmt.Errorf("%w: %s sans prix", models.ErrInvalidLine, lineName(it))
		}
		if it.Quantity < 1 {
			return decimal.Zero, fmt.Errorf("%w: %s quantité %d", models.ErrInvalidLine, lineName(it), it.Quantity)
		}
		sub, _ := it.Subtotal()
		total = total.Add(sub)
	}
	return total, nil
}

func lineName(it models.CartItem) string {
	if it.ID.IsZero() {
		return fmt.Sprintf("%q", it.Name)
	}
	return "ligne " + it.ID.String()
}
