package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sneaker_store/internal/checkout"
	"sneaker_store/internal/format"
	"sneaker_store/internal/models"
)

var (
	delivery models.Delivery

	checkoutCmd = &cobra.Command{
		Use:   "checkout",
		Short: "Récapitule le panier et confirme la commande",
		RunE:  runCheckout,
	}
)

func init() {
	checkoutCmd.Flags().StringVar(&delivery.Name, "name", "", "nom complet")
	checkoutCmd.Flags().StringVar(&delivery.Phone, "phone", "", "téléphone")
	checkoutCmd.Flags().StringVar(&delivery.Address, "address", "", "adresse de livraison")
}

func runCheckout(cmd *cobra.Command, args []string) error {
	if err := current.cart.Load(cmd.Context()); err != nil {
		return err
	}

	order := checkout.New(current.cart.Items(), current.notifier)
	lines, err := order.Lines()
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintf(current.out, "%s (%s | %s) x%d  %s\n", l.Item.Name, l.Item.Color, l.Item.Size, l.Item.Quantity, format.Price(l.Subtotal))
	}

	_, err = order.Confirm(delivery)
	return err
}
