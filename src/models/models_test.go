package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		ID:       "tx-1",
		Symbol:   "AAPL",
		Side:     SideBuy,
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(150),
		Date:     "2024-01-15",
	}
}

func TestParseSide(t *testing.T) {
	t.Run("accepts buy and sell in any case", func(t *testing.T) {
		for input, want := range map[string]Side{
			"buy":    SideBuy,
			"BUY":    SideBuy,
			" Sell ": SideSell,
			"sell":   SideSell,
		} {
			side, err := ParseSide(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, want, side, "input %q", input)
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, input := range []string{"", "hold", "short", "b"} {
			_, err := ParseSide(input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
	assert.Equal(t, "MSFT", NormalizeSymbol("MSFT"))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestTransactionValidate(t *testing.T) {
	t.Run("valid transaction passes", func(t *testing.T) {
		tx := validTransaction()
		assert.NoError(t, tx.Validate())
	})

	t.Run("empty symbol rejected", func(t *testing.T) {
		tx := validTransaction()
		tx.Symbol = "  "
		assert.ErrorContains(t, tx.Validate(), "symbol is required")
	})

	t.Run("unknown side rejected", func(t *testing.T) {
		tx := validTransaction()
		tx.Side = "hold"
		assert.ErrorContains(t, tx.Validate(), "unrecognized transaction side")
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		tx := validTransaction()
		tx.Quantity = decimal.Zero
		assert.ErrorContains(t, tx.Validate(), "quantity must be positive")
	})

	t.Run("negative price rejected", func(t *testing.T) {
		tx := validTransaction()
		tx.Price = decimal.NewFromInt(-5)
		assert.ErrorContains(t, tx.Validate(), "price must be positive")
	})

	t.Run("bad date rejected", func(t *testing.T) {
		tx := validTransaction()
		tx.Date = "15/01/2024"
		assert.ErrorContains(t, tx.Validate(), "invalid date")
	})
}
