package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sneaker_store/internal/format"
	"sneaker_store/internal/models"
)

var (
	lineSize  string
	lineColor string
	confirmRm bool

	cartCmd = &cobra.Command{
		Use:   "cart",
		Short: "Gérer le panier",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return current.cart.Load(cmd.Context())
		},
	}
	cartListCmd = &cobra.Command{
		Use:   "list",
		Short: "Affiche le panier et son total",
		RunE:  runCartList,
	}
	cartAddCmd = &cobra.Command{
		Use:   "add [product-id]",
		Short: "Ajoute un produit au panier (taille et couleur obligatoires)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCartAdd,
	}
	cartIncCmd = &cobra.Command{
		Use:   "inc [line-id]",
		Short: "Augmente la quantité d'une ligne",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := current.cart.IncreaseQuantity(cmd.Context(), models.ID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(current.out, "%s : quantité %d\n", item.Name, item.Quantity)
			return nil
		},
	}
	cartDecCmd = &cobra.Command{
		Use:   "dec [line-id]",
		Short: "Diminue la quantité d'une ligne (minimum 1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := current.cart.DecreaseQuantity(cmd.Context(), models.ID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(current.out, "%s : quantité %d\n", item.Name, item.Quantity)
			return nil
		},
	}
	cartRmCmd = &cobra.Command{
		Use:   "rm [line-id]",
		Short: "Retire une ligne du panier (demande --yes)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCartRemove,
	}
)

func init() {
	cartAddCmd.Flags().StringVar(&lineSize, "size", "", "taille choisie")
	cartAddCmd.Flags().StringVar(&lineColor, "color", "", "couleur choisie")
	cartRmCmd.Flags().BoolVarP(&confirmRm, "yes", "y", false, "confirme la suppression")

	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartIncCmd, cartDecCmd, cartRmCmd)
}

func runCartList(cmd *cobra.Command, args []string) error {
	items := current.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(current.out, "Votre panier est vide")
		return nil
	}

	w := tabwriter.NewWriter(current.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LIGNE\tPRODUIT\tTAILLE\tCOULEUR\tPRIX\tQTÉ")
	for _, it := range items {
		price := "?"
		if it.Price.Valid {
			price = format.Price(it.Price.Decimal)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\tx%d\n", it.ID, it.Name, it.Size, it.Color, price, it.Quantity)
	}
	w.Flush()

	total, err := current.cart.Total()
	if err != nil {
		return err
	}
	fmt.Fprintf(current.out, "\nTotal : %s\n", format.Price(total))
	return nil
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := current.api.GetProduct(ctx, models.ID(args[0]))
	if err != nil {
		return err
	}
	item, err := current.cart.AddToCart(ctx, *p, lineSize, lineColor)
	if err != nil {
		return err
	}
	fmt.Fprintf(current.out, "✅ Ajouté au panier : %s (%s, %s) ligne %s\n", item.Name, item.Size, item.Color, item.ID)
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	id := models.ID(args[0])
	if err := current.cart.RequestRemoval(id); err != nil {
		return err
	}
	if !confirmRm {
		current.cart.CancelRemoval(id)
		return fmt.Errorf("suppression de la ligne %s annulée : relancer avec --yes pour confirmer", id)
	}
	if err := current.cart.ConfirmRemoval(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(current.out, "✅ Ligne %s retirée du panier\n", id)
	return nil
}
