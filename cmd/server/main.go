package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sneaker_store/internal/cache"
	"sneaker_store/internal/config"
	"sneaker_store/internal/database"
	"sneaker_store/internal/routes"
)

// Dev store compatible json-server : sert /products, /cart et /users
// pour développer et tester l'application sans le vrai backend.
func main() {
	config.Load()
	cfg := config.FromEnv()

	store, err := database.ConnectDatabases(cfg)
	if err != nil {
		log.Fatalf("❌ Échec initialisation du store: %v", err)
	}
	defer store.Close()

	r := gin.Default()
	routes.RegisterRoutes(r, cache.Wrap(store, cache.ListCacheTTL))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("🚀 Dev store lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Erreur serveur: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du dev store…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}
