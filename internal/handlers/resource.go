package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"sneaker_store/internal/database"
)

// Resource expose une collection façon json-server : GET/POST sur la
// collection, GET/PUT/DELETE sur un élément.
type Resource struct {
	Store      database.Store
	Collection string
	// Validate contrôle le document avant écriture (optionnel)
	Validate func(database.Document) error
}

// 🟢 GET /<collection>?champ=valeur
func (r Resource) List(c *gin.Context) {
	docs, err := r.Store.List(c.Request.Context(), r.Collection)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, filterDocuments(docs, c.Request.URL.Query()))
}

// 🟢 GET /<collection>/:id
func (r Resource) Get(c *gin.Context) {
	doc, err := r.Store.Get(c.Request.Context(), r.Collection, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// 🟢 POST /<collection>
func (r Resource) Create(c *gin.Context) {
	doc, ok := r.bind(c)
	if !ok {
		return
	}
	delete(doc, "id")

	created, err := r.Store.Create(c.Request.Context(), r.Collection, doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set("created_id", database.DocID(created))
	c.JSON(http.StatusCreated, created)
}

// 🟡 PUT /<collection>/:id (remplacement complet)
func (r Resource) Update(c *gin.Context) {
	doc, ok := r.bind(c)
	if !ok {
		return
	}

	updated, err := r.Store.Update(c.Request.Context(), r.Collection, c.Param("id"), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ❌ DELETE /<collection>/:id
func (r Resource) Delete(c *gin.Context) {
	if err := r.Store.Delete(c.Request.Context(), r.Collection, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (r Resource) bind(c *gin.Context) (database.Document, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête illisible"})
		return nil, false
	}
	doc, err := database.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
		return nil, false
	}
	if r.Validate != nil {
		if err := r.Validate(doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
			return nil, false
		}
	}
	return doc, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Introuvable"})
	case errors.Is(err, database.ErrUnknownCollection):
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection inconnue"})
	default:
		log.Printf("❌ Erreur store: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}

// filterDocuments applique les filtres d'égalité de la query string
func filterDocuments(docs []database.Document, query map[string][]string) []database.Document {
	if len(query) == 0 {
		return docs
	}
	out := make([]database.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, query) {
			out = append(out, doc)
		}
	}
	return out
}

func matches(doc database.Document, query map[string][]string) bool {
	for field, values := range query {
		if len(values) == 0 {
			continue
		}
		if fieldString(doc[field]) != values[0] {
			return false
		}
	}
	return true
}

func fieldString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// validateInto décode le document dans in et applique les tags binding
func validateInto(doc database.Document, in interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, in); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(in)
}
