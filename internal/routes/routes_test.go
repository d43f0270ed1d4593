package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneaker_store/internal/database"
	"sneaker_store/internal/handlers"
	"sneaker_store/internal/utils"
)

func setupRouter(t *testing.T) (*gin.Engine, *database.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := database.NewMemoryStore()
	require.NoError(t, database.Seed(context.Background(), store, []byte(`{
		"products": [{"id": 1, "name": "Nike Air Force 1", "price": 500000, "sizes": ["38"], "colors": ["đen"]}],
		"users": [{"id": 1, "username": "alice", "password": "correct"}]
	}`)))

	r := gin.New()
	RegisterRoutes(r, store)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProductsRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, float64(1), products[0]["id"])

	w = do(r, http.MethodPost, "/products", `{"name":"Vans Old Skool","price":1200000}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":2`)

	w = do(r, http.MethodPut, "/products/2", `{"name":"Vans Old Skool","price":990000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":990000`)

	w = do(r, http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":990000`)

	w = do(r, http.MethodDelete, "/products/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = do(r, http.MethodGet, "/products/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductsRejectInvalid(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/products", `{"price":10}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/products", `{"name":"x","price":-10}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/products", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/products/99", `{"name":"x","price":1}`).Code)
}

func TestCartRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/cart", `{"productId":1,"name":"Nike Air Force 1","price":500000,"size":"38","color":"đen","quantity":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &line))
	id, ok := line["id"].(string)
	require.True(t, ok)

	w = do(r, http.MethodPut, "/cart/"+id, `{"productId":1,"name":"Nike Air Force 1","price":500000,"size":"38","color":"đen","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quantity":2`)

	w = do(r, http.MethodPut, "/cart/"+id, `{"productId":1,"size":"38","color":"đen","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/cart/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/cart/"+id, "").Code)
}

func TestUsersRoutes(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/users?username=alice&password=correct", "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["username"])
	assert.NotContains(t, users[0], "password")

	w = do(r, http.MethodGet, "/users?username=alice&password=wrong", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(r, http.MethodPost, "/users", `{"username":"bob","email":"bob@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret1")

	w = do(r, http.MethodPost, "/users", `{"username":"BOB","email":"bob@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/users", `{"username":"carol","email":"pas-un-email","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "argon2")
}

func TestAuditPriceChange(t *testing.T) {
	r, _ := setupRouter(t)

	var entries []utils.AuditEntry
	previous := utils.AuditSink
	utils.AuditSink = func(e utils.AuditEntry) { entries = append(entries, e) }
	t.Cleanup(func() { utils.AuditSink = previous })

	w := do(r, http.MethodPut, "/products/1", `{"name":"Nike Air Force 1","price":450000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, utils.ACTION_PRODUCT_PRICE_CHANGE)
	assert.Contains(t, actions, utils.ACTION_PRODUCT_UPDATE)

	entries = nil
	w = do(r, http.MethodPost, "/products", `{"price":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	do(r, http.MethodGet, "/products", "")

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "store_http_requests_total")
}

func TestCatalogWebSocket(t *testing.T) {
	r, _ := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/catalog"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello handlers.CatalogMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	// une mutation du panier n'est pas poussée, celle du catalogue oui
	resp, err := http.Post(srv.URL+"/cart", "application/json",
		strings.NewReader(`{"productId":1,"size":"38","color":"đen","quantity":1}`))
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/products/1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	var msg handlers.CatalogMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.CatalogMessage{Type: handlers.CatalogUpdated, Action: "deleted", ID: "1"}, msg)
}
