package gammaapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Market represents a Gamma API market
type Market struct {
	ID            string    `json:"id"`
	ConditionID   string    `json:"conditionId"`
	Slug          string    `json:"slug"`
	Question      string    `json:"question"`
	EndDate       string    `json:"endDate"`
	Liquidity     FlexFloat `json:"liquidity"`
	Volume24hr    FlexFloat `json:"volume24hr"`
	Active        bool      `json:"active"`
	Closed        bool      `json:"closed"`
	OutcomePrices string    `json:"outcomePrices"` // JSON-encoded, e.g. "[\"0.62\", \"0.38\"]"
	ClobTokenIDs  string    `json:"clobTokenIds"`  // JSON-encoded, e.g. "[\"7160...\", \"2853...\"]"
}

// Prices decodes the outcome price array. An empty field yields no prices.
func (m *Market) Prices() ([]float64, error) {
	if strings.TrimSpace(m.OutcomePrices) == "" {
		return nil, nil
	}
	var raw []FlexFloat
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return nil, fmt.Errorf("decode outcomePrices: %w", err)
	}
	prices := make([]float64, len(raw))
	for i, p := range raw {
		prices[i] = float64(p)
	}
	return prices, nil
}

// TokenIDs decodes the CLOB token id array. An empty field yields no ids.
func (m *Market) TokenIDs() ([]string, error) {
	if strings.TrimSpace(m.ClobTokenIDs) == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil, fmt.Errorf("decode clobTokenIds: %w", err)
	}
	return ids, nil
}

// FlexFloat unmarshals from a JSON number or a numeric string. Gamma sends
// liquidity as a string and volume24hr as a number.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("flexfloat: %s is neither number nor string", string(data))
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexfloat: %w", err)
	}
	*f = FlexFloat(n)
	return nil
}

// MarketParams holds parameters for the ListMarkets call
type MarketParams struct {
	IncludeClosed bool
	Order         string // volume24hr, liquidity; empty leaves the API default
	Ascending     bool
	Limit         int
	Offset        int
}
