package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sneaker_store/internal/cart"
	"sneaker_store/internal/catalog"
	"sneaker_store/internal/client"
	"sneaker_store/internal/config"
	"sneaker_store/internal/device"
	"sneaker_store/internal/notify"
	"sneaker_store/internal/session"
)

// app regroupe les composants partagés par les commandes
type app struct {
	cfg      config.Config
	api      *client.Client
	device   *device.BadgerStore
	session  *session.Session
	catalog  *catalog.Catalog
	cart     *cart.Reconciler
	notifier notify.Notifier
	out      io.Writer
}

var (
	baseURL   string
	deviceDir string
	verbose   bool

	current *app

	rootCmd = &cobra.Command{
		Use:           "storefront",
		Short:         "Client en ligne de commande de la boutique de chaussures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				log.SetOutput(io.Discard)
			}
			config.Load()
			cfg := config.FromEnv()
			if baseURL != "" {
				cfg.StoreBaseURL = baseURL
			}
			switch {
			case cmd.Flags().Changed("device-dir"):
				cfg.DeviceDir = deviceDir
			case cfg.DeviceDir == "":
				cfg.DeviceDir = defaultDeviceDir()
			}

			a, err := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			current = a
			return nil
		},
	}
)

func newApp(cfg config.Config, out, errOut io.Writer) (*app, error) {
	notifier := notify.Func(func(n notify.Notice) {
		switch n.Level {
		case notify.LevelError:
			fmt.Fprintf(errOut, "❌ %s : %s\n", n.Action, n.Message)
		case notify.LevelWarn:
			fmt.Fprintf(errOut, "⚠️  %s : %s\n", n.Action, n.Message)
		default:
			fmt.Fprintf(out, "✅ %s\n", n.Message)
		}
	})

	store, err := device.Open(cfg.DeviceDir)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.StoreBaseURL, client.WithNotifier(notifier), client.WithTimeout(cfg.StoreTimeout))
	return &app{
		cfg:      cfg,
		api:      api,
		device:   store,
		session:  session.New(api, store, notifier),
		catalog:  catalog.New(api),
		cart:     cart.New(api, cart.WithNotifier(notifier), cart.WithTimeout(cfg.StoreTimeout)),
		notifier: notifier,
		out:      out,
	}, nil
}

// defaultDeviceDir garde la session entre deux commandes
func defaultDeviceDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "storefront")
}

func (a *app) close() {
	a.cart.Close()
	if err := a.device.Close(); err != nil {
		log.Printf("⚠️ Fermeture du stockage local: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "store", "", "URL du store (défaut : STORE_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&deviceDir, "device-dir", "", "dossier du stockage local (défaut : DEVICE_DIR ou dossier de config utilisateur, vide = mémoire)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "affiche les logs techniques")

	rootCmd.AddCommand(productsCmd, cartCmd, checkoutCmd, loginCmd, logoutCmd, registerCmd, forgotCmd, whoamiCmd)
}

func main() {
	err := rootCmd.Execute()
	// fermé ici et pas dans un PostRun : cobra ne l'appelle pas en cas d'erreur
	if current != nil {
		current.close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur :", err)
		os.Exit(1)
	}
}
