package catalog

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	catalogUpdated = "catalog_updated"
	connected      = "connected"
	retryDelay     = 2 * time.Second
)

type catalogMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	ID     string `json:"id,omitempty"`
}

// WatchURL déduit l'adresse websocket du dev store de son URL HTTP
func WatchURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/catalog"
}

// Watch recharge le catalogue à chaque mutation annoncée par le serveur.
// La connexion est rétablie après une coupure, jusqu'à l'annulation de ctx.
func (c *Catalog) Watch(ctx context.Context, wsURL string) error {
	for {
		err := c.watchOnce(ctx, wsURL)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("⚠️ Flux catalogue interrompu, reconnexion dans %s: %v", retryDelay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

func (c *Catalog) watchOnce(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg catalogMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		// "connected" arrive une fois l'abonnement actif : on rattrape
		// les mutations manquées avant la connexion
		if msg.Type != catalogUpdated && msg.Type != connected {
			continue
		}
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️ Rechargement du catalogue impossible: %v", err)
		}
	}
}
