// Package scanner implements the poly commands: market scans and searches
// against the Gamma API, positions from the Data API, and the account and
// order commands routed through the CLOB client.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/polytools/internal/alerts"
	"github.com/liamashdown/polytools/internal/metrics"
	"github.com/liamashdown/polytools/internal/polymarket/clobapi"
	"github.com/liamashdown/polytools/internal/polymarket/dataapi"
	"github.com/liamashdown/polytools/internal/polymarket/gammaapi"
)

const (
	OrderVolume24hr = "volume24hr"
	OrderLiquidity  = "liquidity"

	DefaultScanLimit   = 30
	DefaultSearchLimit = 200

	searchPageSize     = 100
	midLow             = 0.10
	midHigh            = 0.90
	positionPrintLimit = 500
)

// ErrNoWallet is returned by account commands when no wallet address is known.
var ErrNoWallet = errors.New("no wallet address: configure a key file")

// MarketLister fetches pages of markets.
type MarketLister interface {
	ListMarkets(ctx context.Context, params gammaapi.MarketParams) ([]gammaapi.Market, error)
}

// PositionFetcher fetches open positions for an address.
type PositionFetcher interface {
	GetPositions(ctx context.Context, params dataapi.PositionParams) ([]json.RawMessage, error)
}

// Trader is the order-management surface of the CLOB client.
type Trader interface {
	Address() string
	FunderAddress() string
	GetOrderBook(ctx context.Context, tokenID string) (*clobapi.OrderBook, error)
	GetBalanceAllowance(ctx context.Context) (*clobapi.BalanceAllowance, error)
	CreateOrder(ctx context.Context, args clobapi.OrderArgs) (*clobapi.SignedOrder, error)
	PostOrder(ctx context.Context, order *clobapi.SignedOrder, orderType clobapi.OrderType) (json.RawMessage, error)
	GetOrders(ctx context.Context) ([]json.RawMessage, error)
	CancelOrder(ctx context.Context, orderID string) (json.RawMessage, error)
}

// Scanner runs commands and writes their output to out. Any dependency a
// command does not use may be nil.
type Scanner struct {
	markets   MarketLister
	positions PositionFetcher
	trader    Trader
	alerts    alerts.Sender
	out       io.Writer
	log       *logrus.Logger
}

// New creates a Scanner. sender is notified of placed and cancelled orders
// and may be nil.
func New(markets MarketLister, positions PositionFetcher, trader Trader, sender alerts.Sender, out io.Writer, log *logrus.Logger) *Scanner {
	return &Scanner{
		markets:   markets,
		positions: positions,
		trader:    trader,
		alerts:    sender,
		out:       out,
		log:       log,
	}
}

// ScanOptions controls Scan.
type ScanOptions struct {
	Order   string
	Limit   int
	MidOnly bool
}

// SearchOptions controls Search.
type SearchOptions struct {
	Query string
	Limit int
}

// OrderRequest is an unvalidated limit order from the command line.
type OrderRequest struct {
	TokenID string
	Side    string
	Price   float64
	Size    float64
}

// Validate checks side, price and size and returns the parsed side.
func (r OrderRequest) Validate() (clobapi.Side, error) {
	side, err := clobapi.ParseSide(r.Side)
	if err != nil {
		return "", err
	}
	if r.Price <= 0 || r.Price >= 1 {
		return "", fmt.Errorf("invalid price %v: must be between 0 and 1", r.Price)
	}
	if r.Size <= 0 {
		return "", fmt.Errorf("invalid size %v: must be positive", r.Size)
	}
	return side, nil
}

// ValidateOrder checks a scan ordering field.
func ValidateOrder(order string) error {
	switch order {
	case OrderVolume24hr, OrderLiquidity:
		return nil
	}
	return fmt.Errorf("invalid order %q: must be %s or %s", order, OrderVolume24hr, OrderLiquidity)
}

// Scan lists top open markets by 24h volume or liquidity.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) error {
	if opts.Order == "" {
		opts.Order = OrderVolume24hr
	}
	if err := ValidateOrder(opts.Order); err != nil {
		return err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultScanLimit
	}

	markets, err := s.markets.ListMarkets(ctx, gammaapi.MarketParams{
		Order:     opts.Order,
		Ascending: false,
		Limit:     opts.Limit,
	})
	if err != nil {
		return err
	}

	printed := 0
	for _, m := range markets {
		yes, no, ok := s.outcomePrices(m)
		if !ok {
			continue
		}
		if opts.MidOnly && (yes < midLow || yes > midHigh) {
			continue
		}

		fmt.Fprintf(s.out, "%s  %s\n", formatOdds(yes, no), m.Question)
		fmt.Fprintf(s.out, "  liq=$%s  vol24h=$%s  end=%s\n",
			formatUSD(float64(m.Liquidity)), formatUSD(float64(m.Volume24hr)), orUnknown(m.EndDate))
		if yesToken, noToken, ok := s.tokenPair(m); ok {
			fmt.Fprintf(s.out, "  yes_token=%s...  no_token=%s...\n", prefix(yesToken, 20), prefix(noToken, 20))
		}
		fmt.Fprintln(s.out)
		printed++
	}

	s.log.WithFields(logrus.Fields{
		"fetched": len(markets),
		"printed": printed,
		"order":   opts.Order,
	}).Debug("Scan complete")
	return nil
}

// Search pages through open markets and prints those whose question contains
// the query, case-insensitively.
func (s *Scanner) Search(ctx context.Context, opts SearchOptions) error {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	query := strings.ToLower(opts.Query)

	found := 0
	for offset := 0; offset < opts.Limit; offset += searchPageSize {
		batch, err := s.markets.ListMarkets(ctx, gammaapi.MarketParams{
			Limit:  searchPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, m := range batch {
			if !strings.Contains(strings.ToLower(m.Question), query) {
				continue
			}
			yes, no, ok := s.outcomePrices(m)
			if !ok {
				continue
			}

			fmt.Fprintf(s.out, "%s  %s\n", formatOdds(yes, no), m.Question)
			fmt.Fprintf(s.out, "  end=%s  liq=$%s\n", orUnknown(m.EndDate), formatUSD(float64(m.Liquidity)))
			if yesToken, noToken, ok := s.tokenPair(m); ok {
				fmt.Fprintf(s.out, "  yes_token=%s\n", yesToken)
				fmt.Fprintf(s.out, "  no_token=%s\n", noToken)
			}
			fmt.Fprintln(s.out)
			found++
		}
	}

	if found == 0 {
		fmt.Fprintln(s.out, "No markets found.")
	}
	return nil
}

// Book prints the bids and asks for one outcome token.
func (s *Scanner) Book(ctx context.Context, tokenID string) error {
	book, err := s.trader.GetOrderBook(ctx, tokenID)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Market: %s\n", orUnknown(book.Market))
	printLevels(s.out, "Bids (buy):", book.Bids)
	printLevels(s.out, "Asks (sell):", book.Asks)
	return nil
}

func printLevels(w io.Writer, title string, levels []clobapi.OrderSummary) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(levels) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, l := range levels {
		fmt.Fprintf(w, "  %s x %s\n", l.Price, l.Size)
	}
}

// Positions prints the open positions of the account wallet.
func (s *Scanner) Positions(ctx context.Context) error {
	addr := s.walletAddress()
	if addr == "" {
		return ErrNoWallet
	}

	positions, err := s.positions.GetPositions(ctx, dataapi.PositionParams{User: addr})
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Fprintln(s.out, "No positions.")
		return nil
	}

	for _, p := range positions {
		fmt.Fprintln(s.out, truncate(indentJSON(p), positionPrintLimit))
		fmt.Fprintln(s.out)
	}
	return nil
}

// Balance prints the USDC collateral balance and whether the exchange
// contracts are approved to spend it.
func (s *Scanner) Balance(ctx context.Context) error {
	fmt.Fprintf(s.out, "Address: %s\n", s.trader.Address())
	if funder := s.trader.FunderAddress(); funder != "" {
		fmt.Fprintf(s.out, "Funder:  %s\n", funder)
	}

	ba, err := s.trader.GetBalanceAllowance(ctx)
	if err != nil {
		return err
	}

	usdc, err := formatCollateral(ba.Balance)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "USDC:    $%s\n", usdc)

	approved, err := allowancesApproved(ba.Allowances)
	if err != nil {
		return err
	}
	if approved {
		fmt.Fprintln(s.out, "Approved: ✅")
	} else {
		fmt.Fprintln(s.out, "Approved: ❌ (need to approve on polymarket.com first)")
	}
	return nil
}

// PlaceOrder validates, signs and posts a GTC limit order.
func (s *Scanner) PlaceOrder(ctx context.Context, req OrderRequest) error {
	side, err := req.Validate()
	if err != nil {
		return err
	}

	signed, err := s.trader.CreateOrder(ctx, clobapi.OrderArgs{
		TokenID: req.TokenID,
		Side:    side,
		Price:   req.Price,
		Size:    req.Size,
	})
	if err != nil {
		return err
	}

	resp, err := s.trader.PostOrder(ctx, signed, clobapi.OrderTypeGTC)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, indentJSON(resp))

	var posted struct {
		OrderID string `json:"orderID"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(resp, &posted); err != nil {
		s.log.WithError(err).Debug("Order response has no order id")
	}

	s.notify(ctx, &alerts.OrderEvent{
		Action:    alerts.ActionPlaced,
		Wallet:    s.walletAddress(),
		TokenID:   req.TokenID,
		Side:      string(side),
		Price:     req.Price,
		Size:      req.Size,
		OrderID:   posted.OrderID,
		Status:    posted.Status,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Orders prints every open order.
func (s *Scanner) Orders(ctx context.Context) error {
	orders, err := s.trader.GetOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(s.out, "No open orders.")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintln(s.out, indentJSON(o))
	}
	return nil
}

// Cancel cancels one order by id.
func (s *Scanner) Cancel(ctx context.Context, orderID string) error {
	resp, err := s.trader.CancelOrder(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, indentJSON(resp))

	s.notify(ctx, &alerts.OrderEvent{
		Action:    alerts.ActionCancelled,
		Wallet:    s.walletAddress(),
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// notify delivers an order event. The order has already been accepted, so a
// failed notification is logged and not returned.
func (s *Scanner) notify(ctx context.Context, event *alerts.OrderEvent) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Send(ctx, event); err != nil {
		s.log.WithError(err).WithField("action", event.Action).Warn("Failed to send order notification")
	}
}

// walletAddress is the address that holds positions: the funder when
// configured, otherwise the signer.
func (s *Scanner) walletAddress() string {
	if funder := s.trader.FunderAddress(); funder != "" {
		return funder
	}
	return s.trader.Address()
}

// outcomePrices returns YES and NO prices, or false when the market has no
// usable price pair.
func (s *Scanner) outcomePrices(m gammaapi.Market) (yes, no float64, ok bool) {
	prices, err := m.Prices()
	if err != nil {
		s.log.WithError(err).WithField("question", m.Question).Debug("Skipping market with malformed prices")
		metrics.RecordSkippedMarket("prices")
		return 0, 0, false
	}
	if len(prices) < 2 {
		return 0, 0, false
	}
	return prices[0], prices[1], true
}

func (s *Scanner) tokenPair(m gammaapi.Market) (yes, no string, ok bool) {
	ids, err := m.TokenIDs()
	if err != nil {
		s.log.WithError(err).WithField("question", m.Question).Debug("Ignoring malformed token ids")
		return "", "", false
	}
	if len(ids) < 2 {
		return "", "", false
	}
	return ids[0], ids[1], true
}
