// Package search fetches live web results and condenses them into prose.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Locale pins search results to a region and language.
type Locale struct {
	Location string
	Language string
	Country  string
}

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries SerpAPI's Google engine.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type serpResponse struct {
	OrganicResults []Result `json:"organic_results"`
	Error          string   `json:"error"`
}

// Search returns the organic results for query in the given locale.
func (c *Client) Search(ctx context.Context, query string, loc Locale) ([]Result, error) {
	if c.apiKey == "" {
		return nil, errors.New("serpapi key not configured")
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	if loc.Location != "" {
		params.Set("location", loc.Location)
	}
	if loc.Language != "" {
		params.Set("hl", loc.Language)
	}
	if loc.Country != "" {
		params.Set("gl", loc.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var sr serpResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("search error %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || sr.Error != "" {
		return nil, fmt.Errorf("search error %d: %s", resp.StatusCode, sr.Error)
	}
	return sr.OrganicResults, nil
}
