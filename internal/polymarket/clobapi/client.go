package clobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
	"github.com/liamashdown/polytools/internal/ratelimit"
)

const (
	firstCursor = "MA=="
	endCursor   = "LTE="
)

// ErrNoSigner is returned by operations that need a wallet key when the
// client was built without one.
var ErrNoSigner = errors.New("wallet key required for this operation")

// Client handles communication with the Polymarket CLOB API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger

	signer  *Signer
	chainID int64
	funder  common.Address
	sigType SignatureType
	creds   *Creds

	now func() time.Time
}

// NewClient creates a new CLOB API client. signer may be nil, in which case
// only public endpoints are usable. When a funder address is configured,
// orders are made on behalf of the funder (proxy wallet mode).
func NewClient(cfg *config.Config, httpClient *http.Client, signer *Signer, log *logrus.Logger) *Client {
	c := &Client{
		baseURL:    cfg.ClobAPIBaseURL,
		httpClient: httpClient,
		limiter:    ratelimit.New(cfg.ClobAPIRPS),
		log:        log,
		signer:     signer,
		chainID:    cfg.ChainID,
		sigType:    SignatureEOA,
		now:        time.Now,
	}
	if cfg.ProxySignature() {
		c.funder = common.HexToAddress(cfg.FunderAddress)
		c.sigType = SignatureGnosisSafe
	}
	return c
}

// Address returns the signer address, or an empty string without a key.
func (c *Client) Address() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address().Hex()
}

// FunderAddress returns the configured funder address, or an empty string.
func (c *Client) FunderAddress() string {
	if c.sigType == SignatureEOA {
		return ""
	}
	return c.funder.Hex()
}

// SetCreds installs previously derived API credentials.
func (c *Client) SetCreds(creds *Creds) {
	c.creds = creds
}

// DeriveAPICreds creates API credentials for the signer, falling back to
// deriving the existing ones when creation is refused.
func (c *Client) DeriveAPICreds(ctx context.Context) (*Creds, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}

	creds, err := c.authRequest(ctx, http.MethodPost, "/auth/api-key")
	if err != nil {
		c.log.WithError(err).Debug("Create API key failed, deriving existing key")
		creds, err = c.authRequest(ctx, http.MethodGet, "/auth/derive-api-key")
		if err != nil {
			return nil, fmt.Errorf("clob: derive api key: %w", err)
		}
	}
	if creds.APIKey == "" || creds.Secret == "" {
		return nil, errors.New("clob: derive api key: empty credentials in response")
	}

	c.log.WithField("creds", creds.String()).Debug("Obtained CLOB API credentials")
	c.creds = creds
	return creds, nil
}

func (c *Client) authRequest(ctx context.Context, method, path string) (*Creds, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sig, err := c.signer.SignClobAuth(ts, 0)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"POLY_ADDRESS":   c.signer.Address().Hex(),
		"POLY_SIGNATURE": sig,
		"POLY_TIMESTAMP": ts,
		"POLY_NONCE":     "0",
	}

	body, err := c.do(ctx, method, path, nil, nil, headers)
	if err != nil {
		return nil, err
	}

	var creds Creds
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, nil
}

func (c *Client) ensureCreds(ctx context.Context) error {
	if c.signer == nil {
		return ErrNoSigner
	}
	if c.creds != nil {
		return nil
	}
	_, err := c.DeriveAPICreds(ctx)
	return err
}

// GetOrderBook fetches the book for one outcome token. No auth is needed.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (*OrderBook, error) {
	q := url.Values{}
	q.Set("token_id", tokenID)

	body, err := c.do(ctx, http.MethodGet, "/book", q, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get order book: %w", err)
	}

	var book OrderBook
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("clob: decode order book: %w", err)
	}
	return &book, nil
}

// GetTickSize returns the minimum price increment of a token.
func (c *Client) GetTickSize(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("token_id", tokenID)

	body, err := c.do(ctx, http.MethodGet, "/tick-size", q, nil, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("clob: get tick size: %w", err)
	}

	var resp struct {
		MinimumTickSize decimal.Decimal `json:"minimum_tick_size"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("clob: decode tick size: %w", err)
	}
	return resp.MinimumTickSize, nil
}

// GetNegRisk reports whether a token trades on the neg-risk exchange.
func (c *Client) GetNegRisk(ctx context.Context, tokenID string) (bool, error) {
	q := url.Values{}
	q.Set("token_id", tokenID)

	body, err := c.do(ctx, http.MethodGet, "/neg-risk", q, nil, nil)
	if err != nil {
		return false, fmt.Errorf("clob: get neg risk: %w", err)
	}

	var resp struct {
		NegRisk bool `json:"neg_risk"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("clob: decode neg risk: %w", err)
	}
	return resp.NegRisk, nil
}

// GetBalanceAllowance returns the USDC collateral balance and allowances.
func (c *Client) GetBalanceAllowance(ctx context.Context) (*BalanceAllowance, error) {
	q := url.Values{}
	q.Set("asset_type", "COLLATERAL")
	q.Set("signature_type", strconv.Itoa(int(c.sigType)))

	body, err := c.doL2(ctx, http.MethodGet, "/balance-allowance", q, nil)
	if err != nil {
		return nil, fmt.Errorf("clob: get balance allowance: %w", err)
	}

	var ba BalanceAllowance
	if err := json.Unmarshal(body, &ba); err != nil {
		return nil, fmt.Errorf("clob: decode balance allowance: %w", err)
	}
	return &ba, nil
}

// CreateOrder builds and signs a limit order. Nothing is sent to the book.
func (c *Client) CreateOrder(ctx context.Context, args OrderArgs) (*SignedOrder, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}

	tokenID, ok := new(big.Int).SetString(args.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("invalid token id %q", args.TokenID)
	}

	tick, err := c.GetTickSize(ctx, args.TokenID)
	if err != nil {
		return nil, err
	}
	negRisk, err := c.GetNegRisk(ctx, args.TokenID)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(args.Price)
	if !priceInRange(price, tick) {
		return nil, fmt.Errorf("price %s outside [%s, %s]", price, tick, decimal.NewFromInt(1).Sub(tick))
	}

	makerAmount, takerAmount, err := orderAmounts(args.Side, decimal.NewFromFloat(args.Size), price, tick)
	if err != nil {
		return nil, err
	}

	exchange, err := exchangeAddress(c.chainID, negRisk)
	if err != nil {
		return nil, err
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}

	maker := c.signer.Address()
	if c.sigType != SignatureEOA {
		maker = c.funder
	}

	order := Order{
		Salt:          salt,
		Maker:         maker,
		Signer:        c.signer.Address(),
		Taker:         common.Address{},
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          args.Side,
		SignatureType: c.sigType,
	}

	sig, err := c.signer.SignOrder(&order, exchange)
	if err != nil {
		return nil, fmt.Errorf("sign order: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"token":        args.TokenID,
		"side":         args.Side,
		"maker_amount": makerAmount.String(),
		"taker_amount": takerAmount.String(),
		"neg_risk":     negRisk,
	}).Debug("Signed order")

	return &SignedOrder{Order: order, Signature: sig}, nil
}

// PostOrder submits a signed order and returns the raw exchange response.
func (c *Client) PostOrder(ctx context.Context, order *SignedOrder, orderType OrderType) (json.RawMessage, error) {
	if err := c.ensureCreds(ctx); err != nil {
		return nil, fmt.Errorf("clob: post order: %w", err)
	}

	payload := struct {
		Order     *SignedOrder `json:"order"`
		Owner     string       `json:"owner"`
		OrderType OrderType    `json:"orderType"`
	}{order, c.creds.APIKey, orderType}

	body, err := c.doL2(ctx, http.MethodPost, "/order", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("clob: post order: %w", err)
	}
	return json.RawMessage(body), nil
}

// GetOrders returns every open order, following pagination cursors.
func (c *Client) GetOrders(ctx context.Context) ([]json.RawMessage, error) {
	var orders []json.RawMessage
	cursor := firstCursor

	for cursor != endCursor && cursor != "" {
		q := url.Values{}
		q.Set("next_cursor", cursor)

		body, err := c.doL2(ctx, http.MethodGet, "/data/orders", q, nil)
		if err != nil {
			return nil, fmt.Errorf("clob: get orders: %w", err)
		}

		var page ordersPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("clob: decode orders: %w", err)
		}
		orders = append(orders, page.Data...)
		cursor = page.NextCursor
	}

	return orders, nil
}

// CancelOrder cancels one order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	payload := map[string]string{"orderID": orderID}

	body, err := c.doL2(ctx, http.MethodDelete, "/order", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("clob: cancel order: %w", err)
	}
	return json.RawMessage(body), nil
}

// doL2 sends an HMAC-authenticated request. The signature covers the path
// without its query string.
func (c *Client) doL2(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if err := c.ensureCreds(ctx); err != nil {
		return nil, err
	}

	var bodyStr string
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		bodyStr = string(b)
	}

	headers, err := c.creds.l2Headers(c.signer.Address().Hex(), c.now().Unix(), method, path, bodyStr)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewBufferString(bodyStr)
	}
	return c.do(ctx, method, path, query, body, headers)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("CLOB request")

	return httpclient.Do(c.httpClient, req, "clob")
}
