package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"sneaker_store/internal/database"
	"sneaker_store/internal/utils"
)

// AuditPriceChanges audite les changements de prix d'un produit
func AuditPriceChanges(store database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		// Restaurer le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var requestData map[string]interface{}
		if err := json.Unmarshal(bodyBytes, &requestData); err != nil {
			c.Next()
			return
		}

		newPrice, hasPrice := requestData["price"]
		productID := c.Param("id")
		var oldPrice interface{}
		if hasPrice && productID != "" {
			if doc, err := store.Get(c.Request.Context(), database.Products, productID); err == nil {
				oldPrice = doc["price"]
			} else {
				log.Printf("⚠️ Erreur récupération ancien prix: %v", err)
			}
		}

		c.Next()

		if !hasPrice || oldPrice == nil || !succeeded(c) {
			return
		}
		if priceString(oldPrice) == priceString(newPrice) {
			return
		}

		utils.LogAction(c, utils.ACTION_PRODUCT_PRICE_CHANGE, utils.RESOURCE_PRODUCT, productID,
			map[string]interface{}{"price": oldPrice},
			map[string]interface{}{"price": newPrice})
		log.Printf("💰 Changement de prix audité: produit %s (%v → %v)", productID, oldPrice, newPrice)
	}
}

// AuditCriticalActions audite une mutation après traitement
func AuditCriticalActions(action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")

		c.Next()

		if succeeded(c) {
			if resourceID == "" {
				resourceID = c.GetString("created_id")
			}
			utils.LogAction(c, action, resource, resourceID, nil, nil)
		} else {
			utils.LogFailedAction(c, action, resource, resourceID)
		}
	}
}

func succeeded(c *gin.Context) bool {
	return c.Writer.Status() >= 200 && c.Writer.Status() < 300
}

func priceString(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(bytes.Trim(data, `"`))
}
