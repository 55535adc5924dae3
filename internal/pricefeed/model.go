package pricefeed

import (
	"math/big"

	"go-dia-chain/internal/modules/oracle"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/shopspring/decimal"
)

const fixedPointDecimals = 12

type (
	// Quotation is one observed market value before fixed point conversion.
	Quotation struct {
		Asset     oracle.Asset
		Name      string
		Price     decimal.Decimal
		Supply    decimal.Decimal
		Timestamp uint64
	}

	// Source fetches quotations for a set of assets from one upstream
	// market data provider.
	Source interface {
		Name() string
		Quotations(assets []oracle.Asset) ([]Quotation, error)
	}
)

// toFixedPoint converts a decimal value to the chain's u128 fixed point
// representation with twelve decimals. Negative values clamp to zero and
// overflowing values saturate at the u128 maximum.
func toFixedPoint(value decimal.Decimal) *scale.Uint128 {
	shifted := value.Shift(fixedPointDecimals).Truncate(0)
	if shifted.Sign() < 0 {
		return scale.MustNewUint128(new(big.Int))
	}

	bigValue := shifted.BigInt()
	if bigValue.BitLen() > 128 {
		return scale.MaxUint128
	}
	return scale.MustNewUint128(bigValue)
}

// toPriceEntry converts a quotation into the on chain submission format.
func toPriceEntry(quotation Quotation) oracle.PriceEntry {
	return oracle.PriceEntry{
		Asset:     quotation.Asset,
		Name:      quotation.Name,
		Price:     toFixedPoint(quotation.Price),
		Supply:    toFixedPoint(quotation.Supply),
		Timestamp: quotation.Timestamp,
	}
}
