// Package client traduit les opérations du domaine en appels HTTP vers le
// store REST (json-server ou dev store). Chaque échec est converti en erreur
// sentinelle de models et remonté une seule fois au Notifier.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sneaker_store/internal/models"
	"sneaker_store/internal/notify"
)

const (
	ProductsPath = "/products"
	CartPath     = "/cart"
	UsersPath    = "/users"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

type Client struct {
	baseURL  string
	cartPath string
	http     *http.Client
	notifier notify.Notifier
	timeout  time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = notify.Or(n) }
}

// WithTimeout borne chaque requête. Une requête qui ne répond jamais finit
// en ErrTimeout au lieu de laisser l'écran en chargement.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCartPath change la collection panier (ex: "/produtcsCart" sur un
// ancien db.json)
func WithCartPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.cartPath = "/" + strings.Trim(p, "/")
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cartPath: CartPath,
		http:     &http.Client{},
		notifier: notify.LogNotifier{},
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError décrit une réponse non 2xx
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: statut %d %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return models.ErrNotFound
	}
	return models.ErrTransport
}

// do envoie la requête et décode la réponse dans out (si non nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encodage %s %s: %v", models.ErrValidation, method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s après %s", models.ErrTimeout, method, path, c.timeout)
		}
		return fmt.Errorf("%w: %s %s: %v", models.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: lecture %s %s", models.ErrTimeout, method, path)
		}
		return fmt.Errorf("%w: réponse illisible %s %s: %v", models.ErrTransport, method, path, err)
	}
	return nil
}

// fail journalise l'erreur et lève la notice utilisateur
func (c *Client) fail(action, message string, err error) error {
	log.Printf("❌ %s : %v", action, err)
	if errors.Is(err, models.ErrTimeout) {
		message += " (délai dépassé)"
	}
	notify.Error(c.notifier, action, message)
	return err
}

func itemPath(collection string, id models.ID) string {
	return collection + "/" + url.PathEscape(id.String())
}
