// Package coingecko is a client for the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
	"github.com/liamashdown/polytools/internal/ratelimit"
)

// Quote is the USD price of a coin and its 24h change in percent.
type Quote struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// Client handles communication with the CoinGecko API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger
}

// NewClient creates a new CoinGecko client
func NewClient(cfg *config.Config, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.CoinGeckoAPIBaseURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.CoinGeckoAPIRPS),
		log:        log,
	}
}

// SimplePrice returns USD quotes keyed by coin id.
func (c *Client) SimplePrice(ctx context.Context, ids []string) (map[string]Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/simple/price")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := httpclient.Do(c.httpClient, req, "coingecko")
	if err != nil {
		return nil, fmt.Errorf("coingecko: simple price: %w", err)
	}

	var quotes map[string]Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("coingecko: decode prices: %w", err)
	}

	c.log.WithField("coins", len(quotes)).Debug("Fetched CoinGecko prices")
	return quotes, nil
}
