package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/studymate/study-service/internal/utils"
)

const maxErrorBodyBytes = 1024

var (
	// ErrCollectionNotFound indicates the named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrTimeout indicates the store did not answer in time.
	ErrTimeout = errors.New("vector store timeout")
)

// Config configures the Qdrant-backed store.
type Config struct {
	URL       string
	APIKey    string
	VectorDim int
}

// Point is one stored chunk: its vector plus an arbitrary payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Match is one search or scroll hit.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Client talks to Qdrant over its HTTP API.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  utils.Logger
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// NewClient creates a Qdrant client. It does not contact the server;
// readiness is checked lazily by Ping or EnsureCollection.
func NewClient(cfg Config, logger utils.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("vector store URL is required")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive")
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "vectorstore"),
	}, nil
}

// Ping verifies the server answers its readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return fmt.Errorf("build ready request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyCallError("ready check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ready check returned status=%d", resp.StatusCode)
	}
	return nil
}

// EnsureCollection creates the collection with the configured vector
// size and cosine distance when it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     c.cfg.VectorDim,
			"distance": "Cosine",
		},
	}
	if err := c.doJSON(ctx, http.MethodPut, c.collectionPath(name, ""), req, nil); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}

	c.logger.Info("Created collection", "collection", name, "vector_dim", c.cfg.VectorDim)
	return nil
}

func (c *Client) collectionExists(ctx context.Context, name string) (bool, error) {
	err := c.doJSON(ctx, http.MethodGet, c.collectionPath(name, ""), nil, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	return false, err
}

// Upsert writes points and waits for them to be persisted.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("point id is required")
		}
		if len(p.Vector) != c.cfg.VectorDim {
			return fmt.Errorf("point %q dimension mismatch: expected=%d got=%d", p.ID, c.cfg.VectorDim, len(p.Vector))
		}
		body = append(body, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}

	req := map[string]any{"points": body}
	return c.doJSON(ctx, http.MethodPut, c.collectionPath(collection, "/points?wait=true"), req, nil)
}

// Search returns up to limit payload-bearing matches for the query
// vector, optionally narrowed by a filter.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]any) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if len(vector) != c.cfg.VectorDim {
		return nil, fmt.Errorf("query vector dimension mismatch: expected=%d got=%d", c.cfg.VectorDim, len(vector))
	}
	if limit <= 0 {
		limit = 4
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if filter != nil {
		req["filter"] = filter
	}

	var raw []searchResultItem
	if err := c.doJSON(ctx, http.MethodPost, c.collectionPath(collection, "/points/search"), req, &raw); err != nil {
		return nil, err
	}

	return toMatches(raw), nil
}

// Scroll lists stored points without a query vector.
func (c *Client) Scroll(ctx context.Context, collection string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 1000
	}

	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}

	var result struct {
		Points []searchResultItem `json:"points"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.collectionPath(collection, "/points/scroll"), req, &result); err != nil {
		return nil, err
	}

	return toMatches(result.Points), nil
}

// Count returns the exact number of stored points.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	req := map[string]any{"exact": true}

	var result struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.collectionPath(collection, "/points/count"), req, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// DeleteByFilter removes every point matching the filter and waits for
// the deletion to be persisted.
func (c *Client) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	if filter == nil {
		return fmt.Errorf("delete filter required")
	}

	req := map[string]any{"filter": filter}
	return c.doJSON(ctx, http.MethodPost, c.collectionPath(collection, "/points/delete?wait=true"), req, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyCallError("request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrCollectionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http status=%d body=%q", resp.StatusCode, truncateBody(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if statusErr := parseEnvelopeStatus(env.Status); statusErr != "" {
		return errors.New(statusErr)
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
}

func (c *Client) collectionPath(name, suffix string) string {
	path := "/collections/" + name
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

func toMatches(items []searchResultItem) []Match {
	out := make([]Match, 0, len(items))
	for _, item := range items {
		out = append(out, Match{
			ID:      decodePointID(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	return out
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func classifyCallError(message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", message, ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", message, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
