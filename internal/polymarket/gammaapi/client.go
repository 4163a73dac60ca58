package gammaapi

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
	"github.com/liamashdown/polytools/internal/metrics"
	"github.com/liamashdown/polytools/internal/ratelimit"
)

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.GammaAPIRPS),
		log:        log,
	}
}

// ListMarkets fetches one page of markets. Records that fail to decode are
// dropped individually so one malformed market never fails the page.
func (c *Client) ListMarkets(ctx context.Context, params MarketParams) ([]Market, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/markets")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	q := u.Query()
	if !params.IncludeClosed {
		q.Set("closed", "false")
	}
	if params.Order != "" {
		q.Set("order", params.Order)
		q.Set("ascending", strconv.FormatBool(params.Ascending))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.WithField("url", u.String()).Debug("Fetching markets")

	// Gamma API is public - no auth headers needed
	body, err := httpclient.Do(c.httpClient, req, "gamma")
	if err != nil {
		return nil, fmt.Errorf("gamma: list markets: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("gamma: decode markets: %w", err)
	}

	markets := make([]Market, 0, len(raw))
	for i, item := range raw {
		var m Market
		if err := json.Unmarshal(item, &m); err != nil {
			c.log.WithError(err).WithField("index", params.Offset+i).Debug("Skipping malformed market")
			metrics.RecordSkippedMarket("decode")
			continue
		}
		markets = append(markets, m)
	}

	c.log.WithFields(logrus.Fields{
		"count":   len(markets),
		"skipped": len(raw) - len(markets),
		"offset":  params.Offset,
	}).Debug("Fetched markets from Gamma API")

	return markets, nil
}
