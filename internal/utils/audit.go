package utils

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// AuditEntry décrit une mutation passée par le dev store
type AuditEntry struct {
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	IPAddress  string    `json:"ip_address"`
	Status     int       `json:"status"`
	Success    bool      `json:"success"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditSink reçoit les entrées d'audit. Par défaut : le log standard.
var AuditSink = func(e AuditEntry) {
	data, _ := json.Marshal(e)
	if e.Success {
		log.Printf("📝 Audit %s", data)
	} else {
		log.Printf("⚠️ Audit (échec) %s", data)
	}
}

// LogAction enregistre une action réussie
func LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	AuditSink(newEntry(c, action, resource, resourceID, oldValue, newValue, true))
}

// LogFailedAction enregistre une action échouée
func LogFailedAction(c *gin.Context, action, resource, resourceID string) {
	AuditSink(newEntry(c, action, resource, resourceID, nil, nil, false))
}

func newEntry(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool) AuditEntry {
	return AuditEntry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   marshalValue(oldValue),
		NewValue:   marshalValue(newValue),
		IPAddress:  c.ClientIP(),
		Status:     c.Writer.Status(),
		Success:    success,
		Timestamp:  time.Now(),
	}
}

func marshalValue(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Actions d'audit
const (
	ACTION_PRODUCT_CREATE       = "product.create"
	ACTION_PRODUCT_UPDATE       = "product.update"
	ACTION_PRODUCT_DELETE       = "product.delete"
	ACTION_PRODUCT_PRICE_CHANGE = "product.price_change"

	ACTION_CART_ADD    = "cart.add"
	ACTION_CART_UPDATE = "cart.update"
	ACTION_CART_REMOVE = "cart.remove"

	ACTION_USER_CREATE = "user.create"
)

// Ressources d'audit
const (
	RESOURCE_PRODUCT = "product"
	RESOURCE_CART    = "cart"
	RESOURCE_USER    = "user"
)
