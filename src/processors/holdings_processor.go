// Package processors holds the pure valuation logic: deriving per-symbol
// holdings, cost basis and profit/loss figures from a flat list of
// transactions. Nothing in here touches the database, the network or the
// logger; every function is a deterministic computation over its inputs and
// safe to call concurrently.
package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/backend/src/models"
)

var oneHundred = decimal.NewFromInt(100)

// HoldingsProcessor aggregates the transactions of one portfolio into
// holdings and summary figures.
//
// Cost basis follows the average-cost method: a sell removes
// avgCost*qtySold from the basis and locks in the difference as realized
// P/L. NetValue in the summary is a cash-flow figure (invested minus
// proceeds), not a mark-to-market valuation.
type HoldingsProcessor struct {
	// Lenient clamps oversells to the held quantity and reports them as
	// warnings instead of failing. Default is strict.
	Lenient bool
}

func NewHoldingsProcessor() *HoldingsProcessor {
	return &HoldingsProcessor{}
}

func validateTransactions(transactions []models.Transaction) error {
	for i := range transactions {
		if err := transactions[i].Validate(); err != nil {
			return &ValidationError{TransactionID: transactions[i].ID, Reason: err.Error()}
		}
	}
	return nil
}

// ComputeSummary produces the portfolio-level cash-flow roll-up. The result
// is a pure sum, invariant to input order; empty input yields a zero
// summary. Malformed input is the only error case.
func (p *HoldingsProcessor) ComputeSummary(transactions []models.Transaction) (models.PortfolioSummary, error) {
	if err := validateTransactions(transactions); err != nil {
		return models.PortfolioSummary{}, err
	}

	summary := models.PortfolioSummary{TransactionCount: len(transactions)}
	netQuantities := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		amount := t.Quantity.Mul(t.Price)
		symbol := models.NormalizeSymbol(t.Symbol)
		switch t.Side {
		case models.SideBuy:
			summary.TotalInvestment = summary.TotalInvestment.Add(amount)
			netQuantities[symbol] = netQuantities[symbol].Add(t.Quantity)
		case models.SideSell:
			summary.TotalProceeds = summary.TotalProceeds.Add(amount)
			netQuantities[symbol] = netQuantities[symbol].Sub(t.Quantity)
		}
	}
	summary.NetValue = summary.TotalInvestment.Sub(summary.TotalProceeds)

	for _, quantity := range netQuantities {
		if quantity.IsPositive() {
			summary.ActiveHoldingCount++
		}
	}
	return summary, nil
}

// ComputeHoldings derives the per-symbol positions, including closed ones.
// Transactions are grouped by normalized symbol and replayed in
// chronological order; ties keep input order, so callers supplying rows
// ordered by (date, insertion) get deterministic results.
//
// A sell beyond the held quantity is an *OversellError in strict mode. In
// lenient mode it is clamped to the held quantity and reported in the
// returned warnings.
func (p *HoldingsProcessor) ComputeHoldings(transactions []models.Transaction) ([]models.Holding, []OversellWarning, error) {
	if err := validateTransactions(transactions); err != nil {
		return nil, nil, err
	}

	groups := make(map[string][]models.Transaction)
	for _, t := range transactions {
		symbol := models.NormalizeSymbol(t.Symbol)
		groups[symbol] = append(groups[symbol], t)
	}

	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var holdings []models.Holding
	var warnings []OversellWarning

	for _, symbol := range symbols {
		group := groups[symbol]
		// Dates are ISO formatted, so string order is chronological.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date < group[j].Date
		})

		holding := models.Holding{Symbol: symbol}
		for _, t := range group {
			if t.StockName != "" {
				holding.StockName = t.StockName
			}
			switch t.Side {
			case models.SideBuy:
				holding.Quantity = holding.Quantity.Add(t.Quantity)
				holding.TotalCost = holding.TotalCost.Add(t.Quantity.Mul(t.Price))
			case models.SideSell:
				sellQuantity := t.Quantity
				if sellQuantity.GreaterThan(holding.Quantity) {
					if !p.Lenient {
						return nil, nil, &OversellError{
							Symbol:        symbol,
							TransactionID: t.ID,
							Attempted:     t.Quantity,
							Held:          holding.Quantity,
						}
					}
					warnings = append(warnings, OversellWarning{
						Symbol:        symbol,
						TransactionID: t.ID,
						Attempted:     t.Quantity,
						Held:          holding.Quantity,
					})
					sellQuantity = holding.Quantity
				}
				if sellQuantity.IsZero() {
					continue
				}
				averageCost := holding.TotalCost.Div(holding.Quantity)
				holding.RealizedPL = holding.RealizedPL.Add(t.Price.Sub(averageCost).Mul(sellQuantity))
				holding.Quantity = holding.Quantity.Sub(sellQuantity)
				if holding.Quantity.IsZero() {
					// Avoid rounding residue from the division above.
					holding.TotalCost = decimal.Zero
				} else {
					holding.TotalCost = holding.TotalCost.Sub(averageCost.Mul(sellQuantity))
				}
			}
		}

		if holding.Quantity.IsPositive() {
			average := holding.TotalCost.Div(holding.Quantity)
			holding.AveragePrice = &average
		}
		holdings = append(holdings, holding)
	}

	return holdings, warnings, nil
}

// ComputeActiveHoldings is ComputeHoldings restricted to open positions,
// the view the portfolio pages display. Fully sold symbols are excluded.
func (p *HoldingsProcessor) ComputeActiveHoldings(transactions []models.Transaction) ([]models.Holding, []OversellWarning, error) {
	holdings, warnings, err := p.ComputeHoldings(transactions)
	if err != nil {
		return nil, nil, err
	}
	active := make([]models.Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity.IsPositive() {
			active = append(active, h)
		}
	}
	return active, warnings, nil
}

// ComputeProfitLoss computes the unrealized gain of one holding against a
// current market price. Returns nil when the holding has no defined average
// price (closed position), and a nil percentage when the average price is
// zero; it never divides by zero.
func (p *HoldingsProcessor) ComputeProfitLoss(holding models.Holding, currentPrice decimal.Decimal) *models.ProfitLoss {
	if holding.AveragePrice == nil {
		return nil
	}

	diff := currentPrice.Sub(*holding.AveragePrice)
	result := models.ProfitLoss{Amount: diff.Mul(holding.Quantity)}
	if !holding.AveragePrice.IsZero() {
		percentage := diff.Div(*holding.AveragePrice).Mul(oneHundred)
		result.Percentage = &percentage
	}
	return &result
}
