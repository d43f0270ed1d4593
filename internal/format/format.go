// Package format produit les textes affichés : prix en dong, listes de
// tailles et couleurs, image de remplacement.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Currency         = "₫"
	NotAvailable     = "N/A"
	PlaceholderImage = "https://reactnative.dev/img/tiny_logo.png"
)

var printer = message.NewPrinter(language.Vietnamese)

// Price formate un montant à la vietnamienne : 1250000 → "1.250.000₫".
// Le dong n'a pas de subdivision, le montant est arrondi à l'unité.
func Price(d decimal.Decimal) string {
	return printer.Sprintf("%d", d.Round(0).IntPart()) + Currency
}

// List joint les valeurs avec ", " ou renvoie "N/A" si la liste est vide
func List(values []string) string {
	if len(values) == 0 {
		return NotAvailable
	}
	return strings.Join(values, ", ")
}

// Image renvoie l'URL ou l'image de remplacement si elle est vide
func Image(url string) string {
	if strings.TrimSpace(url) == "" {
		return PlaceholderImage
	}
	return url
}
