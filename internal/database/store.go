package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Collections exposées par le dev store, comme dans un db.json de json-server
const (
	Products = "products"
	Cart     = "cart"
	Users    = "users"
)

var (
	ErrNotFound          = errors.New("document introuvable")
	ErrUnknownCollection = errors.New("collection inconnue")
)

// Document est un objet JSON libre, sans schéma
type Document map[string]interface{}

// Event signale une mutation sur une collection
type Event struct {
	Collection string `json:"collection"`
	Action     string `json:"action"` // "created", "updated", "deleted"
	ID         string `json:"id"`
}

type Store interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, doc Document) (Document, error)
	Update(ctx context.Context, collection, id string, doc Document) (Document, error)
	Delete(ctx context.Context, collection, id string) error
	// Subscribe renvoie les événements jusqu'à l'annulation de ctx
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}

// idStrategy : entiers croissants façon json-server, uuid pour le panier
func usesUUID(collection string) bool {
	return collection == Cart
}

func checkCollection(collection string) error {
	switch collection {
	case Products, Cart, Users:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

// DocID renvoie l'id d'un document sous forme de chaîne
func DocID(doc Document) string {
	switch v := doc["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// setID écrit l'id au format attendu par le client : nombre si numérique
func setID(doc Document, id string) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && strconv.FormatInt(n, 10) == id {
		doc["id"] = json.Number(id)
		return
	}
	doc["id"] = id
}

func newUUID() string {
	return uuid.NewString()
}

// Decode lit un document en gardant les nombres exacts (prix)
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("document vide")
	}
	return doc, nil
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
