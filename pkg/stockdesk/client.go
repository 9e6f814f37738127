// Package stockdesk is a Go SDK for the stock-market backend consumed by the
// stockdesk terminal client: CSV model management, quotes and news.
package stockdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound matches a 404 response through errors.Is.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Is reports whether a 404 StatusError is being compared with ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client provides a Go SDK for interacting with the stockdesk backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new backend API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// ListModels retrieves every model the backend knows about.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.do(ctx, http.MethodGet, "/api/csv/models", nil, "", &models); err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	return models, nil
}

// GetModel retrieves a single model by file name.
func (c *Client) GetModel(ctx context.Context, fileName string) (*Model, error) {
	var m Model
	if err := c.do(ctx, http.MethodGet, modelPath(fileName), nil, "", &m); err != nil {
		return nil, fmt.Errorf("getting model %s: %w", fileName, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteModel removes a model by file name.
func (c *Client) DeleteModel(ctx context.Context, fileName string) error {
	if err := c.do(ctx, http.MethodDelete, modelPath(fileName), nil, "", nil); err != nil {
		return fmt.Errorf("deleting model %s: %w", fileName, err)
	}
	return nil
}

// UploadModel sends r as the multipart field "file" and returns the model
// the backend trained from it.
func (c *Client) UploadModel(ctx context.Context, fileName string, r io.Reader) (*Model, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	var m Model
	if err := c.do(ctx, http.MethodPost, "/api/csv/upload", &buf, mw.FormDataContentType(), &m); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", fileName, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// UploadFile opens path and uploads it under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.UploadModel(ctx, filepath.Base(path), f)
}

// GetQuote retrieves the current quote for symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	var q StockQuote
	if err := c.do(ctx, http.MethodGet, "/api/stock/"+url.PathEscape(symbol), nil, "", &q); err != nil {
		return nil, fmt.Errorf("getting quote %s: %w", symbol, err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetNews retrieves the current market headlines in server order.
func (c *Client) GetNews(ctx context.Context) ([]NewsItem, error) {
	var items []NewsItem
	if err := c.do(ctx, http.MethodGet, "/api/news", nil, "", &items); err != nil {
		return nil, fmt.Errorf("getting news: %w", err)
	}
	return items, nil
}

func modelPath(fileName string) string {
	return "/api/csv/models/" + url.PathEscape(fileName)
}

// do issues a request and decodes a JSON body into out when out is non-nil.
// Any non-2xx status is returned as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
