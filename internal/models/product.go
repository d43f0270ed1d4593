package models

import "github.com/shopspring/decimal"

func init() {
	// json-server et l'app attendent des prix numériques, pas des chaînes
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          ID              `json:"id,omitempty"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
}

// Offers vérifie qu'une valeur fait partie des choix proposés.
// Une liste vide n'impose aucune contrainte.
func Offers(options []string, value string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
