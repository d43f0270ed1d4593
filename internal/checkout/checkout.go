// Package checkout calcule le récapitulatif de commande à partir d'une
// copie du panier. Rien n'est envoyé au serveur.
package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sneaker_store/internal/cart"
	"sneaker_store/internal/format"
	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
)

var validate = validator.New()

type Checkout struct {
	items    []models.CartItem
	notifier notify.Notifier
	now      func() time.Time
}

// New prend une copie du panier : les changements ultérieurs du panier
// n'affectent pas la commande en cours.
func New(snapshot []models.CartItem, notifier notify.Notifier) *Checkout {
	items := make([]models.CartItem, len(snapshot))
	copy(items, snapshot)
	return &Checkout{items: items, notifier: notify.Or(notifier), now: time.Now}
}

func (c *Checkout) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Lines renvoie chaque ligne avec son sous-total
func (c *Checkout) Lines() ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(c.items))
	for _, it := range c.items {
		sub, ok := it.Subtotal()
		if !ok {
			return nil, fmt.Errorf("%w: ligne %s", models.ErrInvalidLine, it.ID)
		}
		lines = append(lines, models.OrderLine{Item: it, Subtotal: sub})
	}
	return lines, nil
}

// Confirm valide les coordonnées de livraison puis calcule le total. Un
// champ vide rejette la commande avant tout calcul.
func (c *Checkout) Confirm(d models.Delivery) (*models.Confirmation, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)

	if err := validate.Struct(d); err != nil {
		notify.Warn(c.notifier, "Paiement", "Veuillez renseigner toutes les informations de livraison")
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, missingFields(err))
	}
	if len(c.items) == 0 {
		notify.Warn(c.notifier, "Paiement", "Votre panier est vide")
		return nil, models.ErrEmptyCart
	}

	total, err := cart.ComputeTotal(c.items)
	if err != nil {
		notify.Error(c.notifier, "Paiement", "Le panier contient une ligne invalide")
		return nil, err
	}

	quantity := 0
	for _, it := range c.items {
		quantity += it.Quantity
	}

	conf := &models.Confirmation{
		Name:        d.Name,
		Phone:       d.Phone,
		Address:     d.Address,
		Total:       total,
		Items:       quantity,
		ConfirmedAt: c.now(),
	}
	c.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Action: "Paiement", Message: Message(conf)})
	return conf, nil
}

// Message est le texte affiché à la confirmation
func Message(conf *models.Confirmation) string {
	return fmt.Sprintf("Merci %s !\nVotre commande a bien été reçue.\nTotal : %s", conf.Name, format.Price(conf.Total))
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, strings.ToLower(fe.Field()))
	}
	return "champs manquants : " + strings.Join(names, ", ")
}
