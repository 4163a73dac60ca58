package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

func formatOdds(yes, no float64) string {
	return fmt.Sprintf("[YES %s / NO %s]", formatPercent(yes), formatPercent(no))
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// formatUSD renders whole dollars with thousands separators.
func formatUSD(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}

// formatCollateral converts a USDC base-unit string to dollars with 2 dp.
func formatCollateral(baseUnits string) (string, error) {
	d, err := decimal.NewFromString(baseUnits)
	if err != nil {
		return "", fmt.Errorf("invalid balance %q: %w", baseUnits, err)
	}
	return d.Shift(-6).StringFixed(2), nil
}

// allowancesApproved reports whether every allowance is a positive integer.
// An empty map is approved.
func allowancesApproved(allowances map[string]string) (bool, error) {
	for spender, v := range allowances {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return false, fmt.Errorf("invalid allowance %q for %s", v, spender)
		}
		if n.Sign() <= 0 {
			return false, nil
		}
	}
	return true, nil
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
