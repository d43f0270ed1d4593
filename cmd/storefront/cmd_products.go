package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sneaker_store/internal/admin"
	"sneaker_store/internal/catalog"
	"sneaker_store/internal/format"
	"sneaker_store/internal/models"
)

var (
	productForm admin.Buffer
	assumeYes   bool

	productsCmd = &cobra.Command{
		Use:   "products",
		Short: "Consulter et gérer le catalogue",
	}
	productsListCmd = &cobra.Command{
		Use:   "list",
		Short: "Affiche le catalogue",
		RunE:  runProductsList,
	}
	productsShowCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Affiche le détail d'un produit",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductsShow,
	}
	productsAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Ajoute un produit",
		RunE:  runProductsAdd,
	}
	productsEditCmd = &cobra.Command{
		Use:   "edit [id]",
		Short: "Modifie un produit (seuls les champs fournis changent)",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductsEdit,
	}
	productsDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Supprime un produit (demande --yes)",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductsDelete,
	}
	productsWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Affiche le catalogue à chaque modification côté serveur",
		RunE:  runProductsWatch,
	}
)

func init() {
	for _, cmd := range []*cobra.Command{productsAddCmd, productsEditCmd} {
		cmd.Flags().StringVar(&productForm.Name, "name", "", "nom")
		cmd.Flags().StringVar(&productForm.Price, "price", "", "prix en dong")
		cmd.Flags().StringVar(&productForm.Brand, "brand", "", "marque")
		cmd.Flags().StringVar(&productForm.Image, "image", "", "URL de l'image")
		cmd.Flags().StringVar(&productForm.Description, "description", "", "description")
		cmd.Flags().StringVar(&productForm.Sizes, "sizes", "", `tailles séparées par des virgules, ex: "38, 39, 40"`)
		cmd.Flags().StringVar(&productForm.Colors, "colors", "", "couleurs séparées par des virgules")
	}
	productsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "confirme la suppression")

	productsCmd.AddCommand(productsListCmd, productsShowCmd, productsAddCmd, productsEditCmd, productsDeleteCmd, productsWatchCmd)
}

func runProductsList(cmd *cobra.Command, args []string) error {
	products, err := current.catalog.Load(cmd.Context())
	if err != nil {
		return err
	}
	printProducts(current.out, products)
	return nil
}

func printProducts(out io.Writer, products []models.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "Aucun produit")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOM\tMARQUE\tPRIX\tTAILLES\tCOULEURS")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Brand, format.Price(p.Price), format.List(p.Sizes), format.List(p.Colors))
	}
	w.Flush()
}

func runProductsShow(cmd *cobra.Command, args []string) error {
	p, err := current.api.GetProduct(cmd.Context(), models.ID(args[0]))
	if err != nil {
		return err
	}
	out := current.out
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.Brand)
	fmt.Fprintf(out, "Prix     : %s\n", format.Price(p.Price))
	fmt.Fprintf(out, "Tailles  : %s\n", format.List(p.Sizes))
	fmt.Fprintf(out, "Couleurs : %s\n", format.List(p.Colors))
	fmt.Fprintf(out, "Image    : %s\n", format.Image(p.Image))
	if p.Description != "" {
		fmt.Fprintf(out, "\n%s\n", p.Description)
	}
	return nil
}

func runProductsAdd(cmd *cobra.Command, args []string) error {
	editor := admin.NewEditor(current.api, current.catalog, current.notifier)
	editor.New()
	editor.SetBuffer(productForm)

	saved, err := editor.Save(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(current.out, "✅ Produit ajouté : %s (id %s)\n", saved.Name, saved.ID)
	return nil
}

func runProductsEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := current.api.GetProduct(ctx, models.ID(args[0]))
	if err != nil {
		return err
	}

	editor := admin.NewEditor(current.api, current.catalog, current.notifier)
	b := editor.Edit(*p)
	flags := cmd.Flags()
	for name, field := range map[string]*string{
		"name":        &b.Name,
		"price":       &b.Price,
		"brand":       &b.Brand,
		"image":       &b.Image,
		"description": &b.Description,
		"sizes":       &b.Sizes,
		"colors":      &b.Colors,
	} {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	editor.SetBuffer(b)

	saved, err := editor.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(current.out, "✅ Produit modifié : %s\n", saved.Name)
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	editor := admin.NewEditor(current.api, current.catalog, current.notifier)
	editor.RequestDelete(models.ID(args[0]))
	if !assumeYes {
		editor.CancelDelete()
		return fmt.Errorf("suppression de %s annulée : relancer avec --yes pour confirmer", args[0])
	}
	if err := editor.ConfirmDelete(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(current.out, "✅ Produit %s supprimé\n", args[0])
	return nil
}

func runProductsWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unsubscribe := current.catalog.Subscribe(func(products []models.Product) {
		fmt.Fprintf(current.out, "\n--- catalogue (%d produits) ---\n", len(products))
		printProducts(current.out, products)
	})
	defer unsubscribe()

	err := current.catalog.Watch(ctx, catalog.WatchURL(current.cfg.StoreBaseURL))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
