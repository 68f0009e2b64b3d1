// Package search runs web searches that give the analysis stages market
// context beyond the uploaded document.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for search failures.
var (
	ErrSearchUnreachable = errors.New("search provider unreachable")
	ErrSearchQuery       = errors.New("search query error")
	ErrSearchTimeout     = errors.New("search timeout")
)

// Searcher returns web results for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerperClient implements Searcher using the Serper Google Search API.
type SerperClient struct {
	baseURL    string
	apiKey     string
	numResults int
	client     *http.Client
}

func NewSerperClient(baseURL, apiKey string, numResults int, timeout time.Duration) *SerperClient {
	if numResults <= 0 {
		numResults = 5
	}
	return &SerperClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		numResults: numResults,
		client:     &http.Client{Timeout: timeout},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []Result `json:"organic"`
}

func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Q: query, Num: c.numResults})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSearchQuery, resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding serper response: %w", err)
	}

	if len(sr.Organic) > c.numResults {
		sr.Organic = sr.Organic[:c.numResults]
	}
	return sr.Organic, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrSearchUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrSearchUnreachable, err)
}

// Format renders results as a numbered plain-text list for a prompt.
func Format(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (%s)\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimRight(sb.String(), "\n")
}
