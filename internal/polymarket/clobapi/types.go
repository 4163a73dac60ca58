package clobapi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts BUY or SELL in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("invalid side %q: must be BUY or SELL", s)
}

// index is the uint8 encoding used in the signed order struct.
func (s Side) index() uint8 {
	if s == Sell {
		return 1
	}
	return 0
}

// SignatureType selects how the exchange verifies the maker.
type SignatureType int

const (
	SignatureEOA        SignatureType = 0
	SignaturePolyProxy  SignatureType = 1
	SignatureGnosisSafe SignatureType = 2
)

// OrderType is the time-in-force of a posted order.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC"
	OrderTypeFOK OrderType = "FOK"
	OrderTypeGTD OrderType = "GTD"
	OrderTypeFAK OrderType = "FAK"
)

// OrderArgs is the user-facing description of a limit order.
type OrderArgs struct {
	TokenID string
	Side    Side
	Price   float64
	Size    float64
}

// Order holds the fields covered by the EIP-712 order signature.
type Order struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          Side
	SignatureType SignatureType
}

// SignedOrder is an order plus its signature, ready to post.
type SignedOrder struct {
	Order
	Signature string
}

// MarshalJSON renders the order in the shape POST /order expects.
func (o SignedOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Salt          int64  `json:"salt"`
		Maker         string `json:"maker"`
		Signer        string `json:"signer"`
		Taker         string `json:"taker"`
		TokenID       string `json:"tokenId"`
		MakerAmount   string `json:"makerAmount"`
		TakerAmount   string `json:"takerAmount"`
		Expiration    string `json:"expiration"`
		Nonce         string `json:"nonce"`
		FeeRateBps    string `json:"feeRateBps"`
		Side          Side   `json:"side"`
		SignatureType int    `json:"signatureType"`
		Signature     string `json:"signature"`
	}{
		Salt:          o.Salt.Int64(),
		Maker:         o.Maker.Hex(),
		Signer:        o.Signer.Hex(),
		Taker:         o.Taker.Hex(),
		TokenID:       o.TokenID.String(),
		MakerAmount:   o.MakerAmount.String(),
		TakerAmount:   o.TakerAmount.String(),
		Expiration:    o.Expiration.String(),
		Nonce:         o.Nonce.String(),
		FeeRateBps:    o.FeeRateBps.String(),
		Side:          o.Side,
		SignatureType: int(o.SignatureType),
		Signature:     o.Signature,
	})
}

// OrderSummary is one price level of the book.
type OrderSummary struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBook is a snapshot of bids and asks for one outcome token.
type OrderBook struct {
	Market       string         `json:"market"`
	AssetID      string         `json:"asset_id"`
	Timestamp    string         `json:"timestamp"`
	Hash         string         `json:"hash"`
	Bids         []OrderSummary `json:"bids"`
	Asks         []OrderSummary `json:"asks"`
	MinOrderSize json.Number    `json:"min_order_size,omitempty"`
	TickSize     json.Number    `json:"tick_size,omitempty"`
	NegRisk      bool           `json:"neg_risk"`
}

// BalanceAllowance is the collateral balance and per-spender allowances,
// both in USDC base units (6 decimals).
type BalanceAllowance struct {
	Balance    string            `json:"balance"`
	Allowances map[string]string `json:"allowances"`
}

type ordersPage struct {
	Data       []json.RawMessage `json:"data"`
	NextCursor string            `json:"next_cursor"`
}
