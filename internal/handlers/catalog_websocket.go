package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sneaker_store/internal/database"
)

const (
	CatalogUpdated   = "catalog_updated"
	CatalogConnected = "connected"
	pingInterval     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (dev store uniquement)
		return true
	},
}

// CatalogMessage est poussé à chaque mutation du catalogue
type CatalogMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	ID     string `json:"id,omitempty"`
}

// CatalogWebSocket notifie les écrans ouverts que le catalogue a changé.
// Le client recharge alors la liste complète.
func CatalogWebSocket(store database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ Erreur upgrade WebSocket: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		events, err := store.Subscribe(ctx)
		if err != nil {
			log.Printf("❌ Abonnement aux événements impossible: %v", err)
			return
		}

		if err := conn.WriteJSON(CatalogMessage{Type: CatalogConnected}); err != nil {
			return
		}

		// Lecture en arrière-plan pour détecter la fermeture côté client
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Collection != database.Products {
					continue
				}
				msg := CatalogMessage{Type: CatalogUpdated, Action: ev.Action, ID: ev.ID}
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("❌ Erreur envoi WebSocket: %v", err)
					return
				}
			case <-ticker.C:
				// Ping pour garder la connexion active
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
