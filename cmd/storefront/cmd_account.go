package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sneaker_store/internal/session"
)

var (
	password     string
	remember     bool
	forget       bool
	registration session.Registration

	loginCmd = &cobra.Command{
		Use:   "login [username]",
		Short: "Se connecter (sans argument : identifiants mémorisés)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Se déconnecter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.session.Logout(cmd.Context(), forget); err != nil {
				return err
			}
			fmt.Fprintln(current.out, "✅ Déconnecté")
			return nil
		},
	}
	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Créer un compte",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := current.session.Register(cmd.Context(), registration)
			return err
		},
	}
	forgotCmd = &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Demander un lien de réinitialisation du mot de passe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return current.session.RequestPasswordReset(args[0])
		},
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Affiche le compte connecté",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := current.session.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(current.out, "Non connecté")
				return nil
			}
			fmt.Fprintf(current.out, "%s <%s> (id %s)\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
)

func init() {
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "mot de passe")
	loginCmd.Flags().BoolVar(&remember, "remember", false, "mémoriser les identifiants sur cet appareil")
	logoutCmd.Flags().BoolVar(&forget, "forget", false, "oublier aussi les identifiants mémorisés")

	registerCmd.Flags().StringVar(&registration.Username, "username", "", "identifiant")
	registerCmd.Flags().StringVar(&registration.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&registration.Password, "password", "", "mot de passe")
	registerCmd.Flags().StringVar(&registration.ConfirmPassword, "confirm", "", "confirmation du mot de passe")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	username := ""
	if len(args) == 1 {
		username = args[0]
	}

	if username == "" || password == "" {
		creds, err := current.session.Remembered(ctx)
		if err != nil {
			return err
		}
		if creds == nil {
			return fmt.Errorf("aucun identifiant mémorisé : préciser l'identifiant et --password")
		}
		if username == "" {
			username = creds.Username
		}
		if password == "" && username == creds.Username {
			password = creds.Password
		}
		// les identifiants mémorisés le restent
		remember = true
	}

	_, err := current.session.Login(ctx, username, password, remember)
	return err
}
