package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/backend/src/models"
)

func tx(id, symbol string, side models.Side, quantity, price float64, date string) models.Transaction {
	return models.Transaction{
		ID:          id,
		PortfolioID: "p1",
		Symbol:      symbol,
		StockName:   symbol + " Inc.",
		Side:        side,
		Quantity:    decimal.NewFromFloat(quantity),
		Price:       decimal.NewFromFloat(price),
		Date:        date,
	}
}

func requireDecimalEqual(t *testing.T, expected float64, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.NewFromFloat(expected).Equal(actual),
		"expected %v, got %s", expected, actual)
}

func TestComputeSummary(t *testing.T) {
	p := NewHoldingsProcessor()

	t.Run("empty input yields zero summary", func(t *testing.T) {
		summary, err := p.ComputeSummary(nil)
		require.NoError(t, err)
		requireDecimalEqual(t, 0, summary.TotalInvestment)
		requireDecimalEqual(t, 0, summary.TotalProceeds)
		requireDecimalEqual(t, 0, summary.NetValue)
		assert.Equal(t, 0, summary.TransactionCount)
		assert.Equal(t, 0, summary.ActiveHoldingCount)
	})

	t.Run("buys and sells partition into investment and proceeds", func(t *testing.T) {
		summary, err := p.ComputeSummary([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "MSFT", models.SideBuy, 5, 200, "2024-01-03"),
			tx("t3", "AAPL", models.SideSell, 4, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		requireDecimalEqual(t, 2000, summary.TotalInvestment)
		requireDecimalEqual(t, 480, summary.TotalProceeds)
		requireDecimalEqual(t, 1520, summary.NetValue)
		assert.Equal(t, 3, summary.TransactionCount)
		assert.Equal(t, 2, summary.ActiveHoldingCount)
	})

	t.Run("result is invariant to input order", func(t *testing.T) {
		transactions := []models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 10, 120, "2024-02-01"),
			tx("t3", "MSFT", models.SideBuy, 3, 300, "2024-03-01"),
		}
		expected, err := p.ComputeSummary(transactions)
		require.NoError(t, err)

		permuted := []models.Transaction{transactions[2], transactions[0], transactions[1]}
		got, err := p.ComputeSummary(permuted)
		require.NoError(t, err)
		assert.Equal(t, expected, got)

		permuted = []models.Transaction{transactions[1], transactions[2], transactions[0]}
		got, err = p.ComputeSummary(permuted)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("fully sold symbol does not count as active", func(t *testing.T) {
		summary, err := p.ComputeSummary([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 10, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, summary.ActiveHoldingCount)
		requireDecimalEqual(t, 1200, summary.TotalProceeds)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		_, err := p.ComputeSummary([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, -5, 100, "2024-01-02"),
		})
		require.Error(t, err)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "t1", vErr.TransactionID)
	})

	t.Run("unknown side is rejected", func(t *testing.T) {
		bad := tx("t1", "AAPL", "hold", 5, 100, "2024-01-02")
		_, err := p.ComputeSummary([]models.Transaction{bad})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestComputeHoldings(t *testing.T) {
	p := NewHoldingsProcessor()

	t.Run("single buy", func(t *testing.T) {
		holdings, warnings, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
		})
		require.NoError(t, err)
		require.Empty(t, warnings)
		require.Len(t, holdings, 1)

		h := holdings[0]
		assert.Equal(t, "AAPL", h.Symbol)
		requireDecimalEqual(t, 10, h.Quantity)
		requireDecimalEqual(t, 1000, h.TotalCost)
		require.NotNil(t, h.AveragePrice)
		requireDecimalEqual(t, 100, *h.AveragePrice)
	})

	t.Run("average cost across multiple buys", func(t *testing.T) {
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideBuy, 10, 200, "2024-01-05"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		requireDecimalEqual(t, 20, holdings[0].Quantity)
		requireDecimalEqual(t, 3000, holdings[0].TotalCost)
		requireDecimalEqual(t, 150, *holdings[0].AveragePrice)
	})

	t.Run("partial sell reduces cost basis proportionally", func(t *testing.T) {
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 5, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 1)

		h := holdings[0]
		requireDecimalEqual(t, 5, h.Quantity)
		requireDecimalEqual(t, 500, h.TotalCost)
		requireDecimalEqual(t, 100, *h.AveragePrice)
		requireDecimalEqual(t, 100, h.RealizedPL) // (120-100)*5
	})

	t.Run("full sell closes the position", func(t *testing.T) {
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 10, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 1)

		h := holdings[0]
		require.True(t, h.Quantity.IsZero())
		require.True(t, h.TotalCost.IsZero())
		assert.Nil(t, h.AveragePrice)
		requireDecimalEqual(t, 200, h.RealizedPL)

		active, _, err := p.ComputeActiveHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 10, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("transactions are replayed in date order regardless of input order", func(t *testing.T) {
		// The sell is dated after both buys, so it consumes the averaged
		// cost even though it appears first in the slice.
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t3", "AAPL", models.SideSell, 10, 150, "2024-03-01"),
			tx("t2", "AAPL", models.SideBuy, 10, 200, "2024-02-01"),
			tx("t1", "AAPL", models.SideBuy, 10, 100, "2024-01-02"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		requireDecimalEqual(t, 10, holdings[0].Quantity)
		requireDecimalEqual(t, 1500, holdings[0].TotalCost)
		requireDecimalEqual(t, 0, holdings[0].RealizedPL) // sold at the 150 average
	})

	t.Run("case and whitespace variants aggregate into one holding", func(t *testing.T) {
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "aapl", models.SideBuy, 10, 100, "2024-01-02"),
			tx("t2", "AAPL ", models.SideBuy, 5, 100, "2024-01-03"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, "AAPL", holdings[0].Symbol)
		requireDecimalEqual(t, 15, holdings[0].Quantity)
	})

	t.Run("holdings come back sorted by symbol", func(t *testing.T) {
		holdings, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "MSFT", models.SideBuy, 1, 300, "2024-01-02"),
			tx("t2", "AAPL", models.SideBuy, 1, 100, "2024-01-02"),
			tx("t3", "GOOG", models.SideBuy, 1, 150, "2024-01-02"),
		})
		require.NoError(t, err)
		require.Len(t, holdings, 3)
		assert.Equal(t, "AAPL", holdings[0].Symbol)
		assert.Equal(t, "GOOG", holdings[1].Symbol)
		assert.Equal(t, "MSFT", holdings[2].Symbol)
	})

	t.Run("oversell fails in strict mode", func(t *testing.T) {
		_, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideSell, 5, 100, "2024-01-02"),
		})
		require.Error(t, err)
		var oErr *OversellError
		require.ErrorAs(t, err, &oErr)
		assert.Equal(t, "AAPL", oErr.Symbol)
		assert.Equal(t, "t1", oErr.TransactionID)
		requireDecimalEqual(t, 5, oErr.Attempted)
		requireDecimalEqual(t, 0, oErr.Held)
	})

	t.Run("oversell clamps and warns in lenient mode", func(t *testing.T) {
		lenient := &HoldingsProcessor{Lenient: true}
		holdings, warnings, err := lenient.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 3, 100, "2024-01-02"),
			tx("t2", "AAPL", models.SideSell, 5, 120, "2024-02-01"),
		})
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, "t2", warnings[0].TransactionID)
		requireDecimalEqual(t, 5, warnings[0].Attempted)
		requireDecimalEqual(t, 3, warnings[0].Held)

		require.Len(t, holdings, 1)
		require.True(t, holdings[0].Quantity.IsZero())
		require.True(t, holdings[0].TotalCost.IsZero())
	})

	t.Run("sell with nothing held in lenient mode is a no-op with warning", func(t *testing.T) {
		lenient := &HoldingsProcessor{Lenient: true}
		holdings, warnings, err := lenient.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideSell, 5, 100, "2024-01-02"),
		})
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		require.Len(t, holdings, 1)
		require.True(t, holdings[0].Quantity.IsZero())
		requireDecimalEqual(t, 0, holdings[0].RealizedPL)
	})

	t.Run("malformed transaction is rejected", func(t *testing.T) {
		_, _, err := p.ComputeHoldings([]models.Transaction{
			tx("t1", "AAPL", models.SideBuy, 10, 0, "2024-01-02"),
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "t1", vErr.TransactionID)
	})
}

func TestComputeProfitLoss(t *testing.T) {
	p := NewHoldingsProcessor()

	holdingWith := func(quantity, averagePrice float64) models.Holding {
		avg := decimal.NewFromFloat(averagePrice)
		return models.Holding{
			Symbol:       "AAPL",
			Quantity:     decimal.NewFromFloat(quantity),
			TotalCost:    avg.Mul(decimal.NewFromFloat(quantity)),
			AveragePrice: &avg,
		}
	}

	t.Run("gain has positive amount and percentage", func(t *testing.T) {
		pl := p.ComputeProfitLoss(holdingWith(10, 100), decimal.NewFromInt(150))
		require.NotNil(t, pl)
		requireDecimalEqual(t, 500, pl.Amount)
		require.NotNil(t, pl.Percentage)
		requireDecimalEqual(t, 50, *pl.Percentage)
	})

	t.Run("loss has negative amount and percentage", func(t *testing.T) {
		pl := p.ComputeProfitLoss(holdingWith(10, 100), decimal.NewFromInt(80))
		require.NotNil(t, pl)
		requireDecimalEqual(t, -200, pl.Amount)
		requireDecimalEqual(t, -20, *pl.Percentage)
	})

	t.Run("closed position has no profit/loss", func(t *testing.T) {
		closed := models.Holding{Symbol: "AAPL"}
		assert.Nil(t, p.ComputeProfitLoss(closed, decimal.NewFromInt(150)))
	})

	t.Run("zero average price yields nil percentage, not a division", func(t *testing.T) {
		zero := decimal.Zero
		h := models.Holding{
			Symbol:       "FREE",
			Quantity:     decimal.NewFromInt(10),
			AveragePrice: &zero,
		}
		pl := p.ComputeProfitLoss(h, decimal.NewFromInt(5))
		require.NotNil(t, pl)
		requireDecimalEqual(t, 50, pl.Amount)
		assert.Nil(t, pl.Percentage)
	})
}
