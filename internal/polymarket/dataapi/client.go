package dataapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
	"github.com/liamashdown/polytools/internal/ratelimit"
)

// Client handles communication with the Polymarket Data API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger
}

// NewClient creates a new Data API client
func NewClient(cfg *config.Config, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.DataAPIBaseURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.DataAPIRPS),
		log:        log,
	}
}

// GetPositions fetches open positions for a wallet. Positions are returned
// undecoded; callers print them as-is.
func (c *Client) GetPositions(ctx context.Context, params PositionParams) ([]json.RawMessage, error) {
	if params.User == "" {
		return nil, fmt.Errorf("positions: user address is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/positions")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	q.Set("user", params.User)
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.SizeThreshold > 0 {
		q.Set("sizeThreshold", strconv.FormatFloat(params.SizeThreshold, 'f', -1, 64))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := httpclient.Do(c.httpClient, req, "data")
	if err != nil {
		return nil, fmt.Errorf("data api: get positions: %w", err)
	}

	var positions []json.RawMessage
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("data api: decode positions: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"user":  params.User,
		"count": len(positions),
	}).Debug("Fetched positions from Data API")

	return positions, nil
}
