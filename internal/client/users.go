package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sneaker_store/internal/models"
)

func (c *Client) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	u.ID = ""
	var created models.User
	if err := c.do(ctx, http.MethodPost, UsersPath, nil, u, &created); err != nil {
		return nil, c.fail("Inscription", "Impossible de créer le compte", err)
	}
	created.Password = ""
	return &created, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, UsersPath, nil, nil, &users); err != nil {
		return nil, c.fail("Utilisateurs", "Impossible de récupérer les utilisateurs", err)
	}
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// Authenticate cherche un compte par identifiant + mot de passe exacts et
// renvoie la première correspondance. Pas de limitation de tentatives ici.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)

	var matches []models.User
	if err := c.do(ctx, http.MethodGet, UsersPath, query, nil, &matches); err != nil {
		return nil, c.fail("Connexion", "Impossible de se connecter", err)
	}
	if len(matches) == 0 {
		return nil, c.fail("Connexion", "Identifiant ou mot de passe incorrect",
			fmt.Errorf("%w: %s", models.ErrUnauthorized, username))
	}

	user := matches[0].Public()
	return &user, nil
}
