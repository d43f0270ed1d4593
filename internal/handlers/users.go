package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sneaker_store/internal/database"
	"sneaker_store/internal/utils"
)

type userInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

// Users gère /users. Les mots de passe sont stockés hashés et ne
// sortent jamais dans une réponse.
type Users struct {
	Store database.Store
}

// 🟢 GET /users?username=&password=
// Le filtre password est vérifié contre le hash Argon2id, pas comparé.
func (u Users) List(c *gin.Context) {
	docs, err := u.Store.List(c.Request.Context(), database.Users)
	if err != nil {
		respondError(c, err)
		return
	}

	query := c.Request.URL.Query()
	password, checkPassword := query["password"]
	query.Del("password")

	out := make([]database.Document, 0, len(docs))
	for _, doc := range filterDocuments(docs, query) {
		if checkPassword && !passwordMatches(doc, first(password)) {
			continue
		}
		out = append(out, publicUser(doc))
	}
	c.JSON(http.StatusOK, out)
}

// 🟢 GET /users/:id
func (u Users) Get(c *gin.Context) {
	doc, err := u.Store.Get(c.Request.Context(), database.Users, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicUser(doc))
}

// 🟢 POST /users
func (u Users) Create(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête illisible"})
		return
	}
	doc, err := database.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
		return
	}

	var in userInput
	if err := validateInto(doc, &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	// ⚡ Vérifier si l'identifiant existe déjà
	existing, err := u.Store.List(c.Request.Context(), database.Users)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, e := range existing {
		if strings.EqualFold(fieldString(e["username"]), in.Username) {
			c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet identifiant existe déjà"})
			return
		}
	}

	delete(doc, "id")
	if err := database.HashUserPassword(doc); err != nil {
		log.Printf("❌ Erreur hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur hash mot de passe"})
		return
	}

	created, err := u.Store.Create(c.Request.Context(), database.Users, doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set("created_id", database.DocID(created))
	c.JSON(http.StatusCreated, publicUser(created))
}

func passwordMatches(doc database.Document, password string) bool {
	hash := fieldString(doc["password"])
	ok, err := utils.VerifyPassword(password, hash)
	if err != nil {
		log.Printf("⚠️ Hash invalide pour l'utilisateur %s: %v", database.DocID(doc), err)
		return false
	}
	return ok
}

func publicUser(doc database.Document) database.Document {
	out := make(database.Document, len(doc))
	for k, v := range doc {
		if k != "password" {
			out[k] = v
		}
	}
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
