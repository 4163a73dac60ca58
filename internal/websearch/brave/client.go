// Package brave is a client for the Brave web search API.
package brave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
	"github.com/liamashdown/polytools/internal/ratelimit"
)

// Result is one web search hit.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type searchResponse struct {
	Web struct {
		Results []Result `json:"results"`
	} `json:"web"`
}

// Client handles communication with the Brave Search API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger
}

// NewClient creates a new Brave Search client
func NewClient(cfg *config.Config, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.BraveAPIBaseURL,
		apiKey:     cfg.BraveAPIKey,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.BraveAPIRPS),
		log:        log,
	}
}

// Search runs a web search and returns up to count results.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if c.apiKey == "" {
		return nil, errors.New("brave: missing API key")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/res/v1/web/search")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	body, err := httpclient.Do(c.httpClient, req, "brave")
	if err != nil {
		return nil, fmt.Errorf("brave: search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("brave: decode results: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"query":   query,
		"results": len(resp.Web.Results),
	}).Debug("Brave search complete")

	return resp.Web.Results, nil
}
