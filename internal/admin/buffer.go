package admin

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"sneaker_store/internal/models"
)

var validate = validator.New()

// Buffer est le formulaire d'édition. Tailles et couleurs y sont du texte
// libre séparé par des virgules, converti en listes à l'enregistrement.
type Buffer struct {
	ID          models.ID
	Name        string `validate:"required"`
	Price       string `validate:"required"`
	Brand       string
	Image       string
	Description string
	Sizes       string
	Colors      string
}

// FromProduct prépare le formulaire pour un produit existant
func FromProduct(p models.Product) Buffer {
	return Buffer{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.String(),
		Brand:       p.Brand,
		Image:       p.Image,
		Description: p.Description,
		Sizes:       strings.Join(p.Sizes, ", "),
		Colors:      strings.Join(p.Colors, ", "),
	}
}

// Product convertit le formulaire. Nom et prix sont obligatoires, le prix
// doit être un nombre positif ou nul.
func (b Buffer) Product() (models.Product, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Price = strings.TrimSpace(b.Price)
	if err := validate.Struct(b); err != nil {
		return models.Product{}, fmt.Errorf("%w: nom et prix obligatoires", models.ErrValidation)
	}

	price, err := decimal.NewFromString(b.Price)
	if err != nil {
		return models.Product{}, fmt.Errorf("%w: prix %q invalide", models.ErrValidation, b.Price)
	}
	if price.IsNegative() {
		return models.Product{}, fmt.Errorf("%w: prix négatif", models.ErrValidation)
	}

	return models.Product{
		ID:          b.ID,
		Name:        b.Name,
		Brand:       strings.TrimSpace(b.Brand),
		Price:       price,
		Image:       strings.TrimSpace(b.Image),
		Description: strings.TrimSpace(b.Description),
		Sizes:       SplitList(b.Sizes),
		Colors:      SplitList(b.Colors),
	}, nil
}

// SplitList découpe "38, 39,,40 " en ["38" "39" "40"]
func SplitList(text string) []string {
	out := []string{}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
