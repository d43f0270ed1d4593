// Package storetest démarre un dev store en mémoire pour les tests
package storetest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"sneaker_store/internal/cache"
	"sneaker_store/internal/database"
	"sneaker_store/internal/routes"
)

// DefaultSeed : un produit, un compte, panier vide
const DefaultSeed = `{
  "products": [
    {"id": 1, "name": "Nike Air Force 1", "brand": "Nike", "price": 500000,
     "image": "", "description": "Basket blanche", "sizes": ["38", "39"], "colors": ["đen", "trắng"]}
  ],
  "cart": [],
  "users": [
    {"id": 1, "username": "alice", "email": "alice@example.com", "password": "correct"}
  ]
}`

func init() {
	gin.SetMode(gin.TestMode)
}

// NewServer démarre le dev store sur un port local. Le serveur est fermé
// à la fin du test.
func NewServer(t testing.TB, seed string) (*httptest.Server, *database.MemoryStore) {
	t.Helper()

	store := database.NewMemoryStore()
	if seed != "" {
		if err := database.Seed(context.Background(), store, []byte(seed)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	r := gin.New()
	routes.RegisterRoutes(r, cache.Wrap(store, cache.ListCacheTTL))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}
