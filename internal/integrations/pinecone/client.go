// Package pinecone is a focused client for vector-similarity retrieval
// against a Pinecone index. Embedding computation happens upstream of the
// index host; this client speaks the text-query surface only.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Match is one ranked retrieval hit.
type Match struct {
	Text     string
	Score    float64
	Category string
	Source   string
}

// tokenPayload is the expected JSON shape stored in SSM for the API key.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("pinecone: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type queryRequest struct {
	Query           string         `json:"query"`
	TopK            int            `json:"top_k"`
	Namespace       string         `json:"namespace,omitempty"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"include_metadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string  `json:"id"`
		Score    float64 `json:"score"`
		Metadata struct {
			Text     string `json:"text"`
			Category string `json:"category"`
			Source   string `json:"source"`
		} `json:"metadata"`
	} `json:"matches"`
}

// Client queries a Pinecone index host. The API key lives in SSM and is
// fetched once per process, like the OpenAI client's token.
type Client struct {
	indexHost   string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string
	topK        int

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTopK(k int) Option {
	return func(c *Client) {
		c.topK = k
	}
}

// NewClient creates a Client for the given index host.
func NewClient(ps Getter, paramPrefix, indexHost string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("pinecone: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("pinecone: parameter prefix must not be empty")
	}
	indexHost = strings.TrimRight(strings.TrimSpace(indexHost), "/")
	if indexHost == "" {
		return nil, errors.New("pinecone: index host must not be empty")
	}
	c := &Client{
		indexHost:   indexHost,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
		topK:        5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKey(ctx, c.getter, c.paramPrefix+"/pinecone-token")
	})
	return c.apiKey, c.keyErr
}

// Query returns ranked matches for the query text within a namespace.
func (c *Client) Query(ctx context.Context, query, namespace string, filters map[string]any) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("pinecone: query must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(queryRequest{
		Query:           query,
		TopK:            c.topK,
		Namespace:       namespace,
		Filter:          filters,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone: marshal query: %w", err)
	}

	url := c.indexHost + "/query"
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("pinecone: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", apiKey)

	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("pinecone: query request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("pinecone: read response body: %w", err)
	}

	var payload queryResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return nil, fmt.Errorf("pinecone: decode response: %w", decErr)
	}

	matches := make([]Match, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		matches = append(matches, Match{
			Text:     m.Metadata.Text,
			Score:    m.Score,
			Category: m.Metadata.Category,
			Source:   m.Metadata.Source,
		})
	}
	return matches, nil
}

func fetchAPIKey(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("pinecone: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("pinecone: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("pinecone: API token is empty")
	}
	return tp.Token, nil
}
