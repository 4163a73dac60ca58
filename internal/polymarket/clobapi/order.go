package clobapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const collateralDecimals = 6

// Exchange contracts that settle orders, keyed by chain id.
var (
	exchangeContracts = map[int64]common.Address{
		137:   common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
		80002: common.HexToAddress("0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40"),
	}
	negRiskExchangeContracts = map[int64]common.Address{
		137:   common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		80002: common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"),
	}
)

// roundConfig holds decimal places for price, size and the computed amount.
type roundConfig struct {
	price  int32
	size   int32
	amount int32
}

var roundingConfigs = map[string]roundConfig{
	"0.1":    {price: 1, size: 2, amount: 3},
	"0.01":   {price: 2, size: 2, amount: 4},
	"0.001":  {price: 3, size: 2, amount: 5},
	"0.0001": {price: 4, size: 2, amount: 6},
}

func exchangeAddress(chainID int64, negRisk bool) (common.Address, error) {
	contracts := exchangeContracts
	if negRisk {
		contracts = negRiskExchangeContracts
	}
	addr, ok := contracts[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("no exchange contract for chain %d", chainID)
	}
	return addr, nil
}

// priceInRange reports whether price lies within [tick, 1-tick].
func priceInRange(price, tick decimal.Decimal) bool {
	return price.GreaterThanOrEqual(tick) && price.LessThanOrEqual(decimal.NewFromInt(1).Sub(tick))
}

// orderAmounts returns maker and taker amounts in collateral base units.
// BUY pays USDC for shares; SELL is the reverse.
func orderAmounts(side Side, size, price, tick decimal.Decimal) (maker, taker *big.Int, err error) {
	rc, ok := roundingConfigs[tick.String()]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported tick size %s", tick)
	}

	rawPrice := price.Round(rc.price)

	switch side {
	case Buy:
		rawTaker := size.RoundDown(rc.size)
		rawMaker := fitAmount(rawTaker.Mul(rawPrice), rc.amount)
		return toBaseUnits(rawMaker), toBaseUnits(rawTaker), nil
	case Sell:
		rawMaker := size.RoundDown(rc.size)
		rawTaker := fitAmount(rawMaker.Mul(rawPrice), rc.amount)
		return toBaseUnits(rawMaker), toBaseUnits(rawTaker), nil
	}
	return nil, nil, fmt.Errorf("invalid side %q", side)
}

// fitAmount trims d to at most dp decimal places, rounding up first to absorb
// float noise from the multiplication.
func fitAmount(d decimal.Decimal, dp int32) decimal.Decimal {
	if decimalPlaces(d) <= dp {
		return d
	}
	d = d.RoundUp(dp + 4)
	if decimalPlaces(d) > dp {
		d = d.RoundDown(dp)
	}
	return d
}

func decimalPlaces(d decimal.Decimal) int32 {
	s := d.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(s) - idx - 1)
}

func toBaseUnits(d decimal.Decimal) *big.Int {
	return d.Shift(collateralDecimals).Round(0).BigInt()
}

// newSalt returns a random salt that survives a JSON number round trip.
func newSalt() (*big.Int, error) {
	salt, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 53))
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}
