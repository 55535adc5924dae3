package pricefeed

import (
	"math/big"
	"testing"

	"go-dia-chain/internal/modules/oracle"

	"github.com/ChainSafe/gossamer/pkg/scale"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u128(value uint64) *scale.Uint128 {
	return scale.MustNewUint128(new(big.Int).SetUint64(value))
}

func TestToFixedPoint(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  *scale.Uint128
	}{
		{"integer", "42", u128(42_000_000_000_000)},
		{"fraction", "1.5", u128(1_500_000_000_000)},
		{"sub unit", "0.000001", u128(1_000_000)},
		{"truncates excess precision", "0.0000000000000009", u128(0)},
		{"zero", "0", u128(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, err := decimal.NewFromString(tc.value)
			require.NoError(t, err)
			assert.Equal(t, 0, tc.want.Compare(toFixedPoint(value)))
		})
	}
}

func TestToFixedPointClampsNegative(t *testing.T) {
	// the clamp path must build a real zero, not panic in the constructor
	var got *scale.Uint128
	require.NotPanics(t, func() {
		got = toFixedPoint(decimal.NewFromInt(-3))
	})
	assert.Equal(t, 0, u128(0).Compare(got))
}

func TestToFixedPointSaturates(t *testing.T) {
	// 1e38 shifted by twelve decimals exceeds 128 bits
	huge := decimal.New(1, 38)
	assert.Equal(t, 0, scale.MaxUint128.Compare(toFixedPoint(huge)))
}

func TestToPriceEntry(t *testing.T) {
	quotation := Quotation{
		Asset:     oracle.Asset{Blockchain: "Bitcoin", Symbol: "BTC"},
		Name:      "Bitcoin",
		Price:     decimal.RequireFromString("65000.25"),
		Supply:    decimal.NewFromInt(21_000_000),
		Timestamp: 1700000000,
	}

	entry := toPriceEntry(quotation)
	assert.Equal(t, quotation.Asset, entry.Asset)
	assert.Equal(t, "Bitcoin", entry.Name)
	assert.Equal(t, uint64(1700000000), entry.Timestamp)
	assert.Equal(t, 0, u128(65_000_250_000_000_000).Compare(entry.Price))
}
