package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery regroupe les coordonnées saisies au moment du paiement
type Delivery struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// OrderLine est une ligne du récapitulatif de commande
type OrderLine struct {
	Item     CartItem        `json:"item"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Confirmation est l'accusé local de fin de commande, jamais persisté
type Confirmation struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Total       decimal.Decimal `json:"total"`
	Items       int             `json:"items"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}
