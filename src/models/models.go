package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-date layout used for transaction dates.
// Dates carry no time component; lexical order equals chronological order.
const DateFormat = "2006-01-02"

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide maps a transaction side string onto the enumerated type.
// Anything other than "buy" or "sell" (after trimming and lowercasing)
// is rejected.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unrecognized transaction side %q", s)
}

// Portfolio is a named collection of transactions owned by one user.
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction is a single buy or sell recorded against a portfolio.
// Quantity and Price must both be strictly positive; construction through
// the handlers goes through Validate before anything is persisted.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	StockName   string          `json:"stock_name"`
	Side        Side            `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NormalizeSymbol fixes the grouping key policy for holdings: upper-case,
// surrounding whitespace stripped.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate rejects malformed transactions: empty symbol, unknown side,
// non-positive quantity or price, or an unparseable date. Financial
// aggregation must fail loudly on bad data, so nothing is coerced.
func (t *Transaction) Validate() error {
	if NormalizeSymbol(t.Symbol) == "" {
		return fmt.Errorf("transaction %s: symbol is required", t.ID)
	}
	if _, err := ParseSide(string(t.Side)); err != nil {
		return fmt.Errorf("transaction %s: %v", t.ID, err)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("transaction %s: quantity must be positive, got %s", t.ID, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("transaction %s: price must be positive, got %s", t.ID, t.Price)
	}
	if _, err := time.Parse(DateFormat, t.Date); err != nil {
		return fmt.Errorf("transaction %s: invalid date %q, expected %s", t.ID, t.Date, DateFormat)
	}
	return nil
}

// Holding is a symbol's derived net position. It is recomputed from the
// transaction set on every read and never persisted.
type Holding struct {
	Symbol    string          `json:"symbol"`
	StockName string          `json:"stock_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	// TotalCost is the cost basis of the currently held units under the
	// average-cost method: sells remove avgCost*qtySold from the basis.
	TotalCost decimal.Decimal `json:"total_cost"`
	// AveragePrice is TotalCost/Quantity, nil for a closed position so a
	// zero quantity can never produce Inf or NaN.
	AveragePrice *decimal.Decimal `json:"average_price"`
	// RealizedPL is the profit locked in by sells against the running
	// average cost at the time of each sell.
	RealizedPL decimal.Decimal `json:"realized_pl"`
}

// PortfolioSummary is the portfolio-level cash-flow roll-up.
// NetValue is TotalInvestment minus TotalProceeds: the net amount of cash
// put into the portfolio, not a mark-to-market valuation. Market value is
// served separately by combining holdings with quotes.
type PortfolioSummary struct {
	TotalInvestment    decimal.Decimal `json:"total_investment"`
	TotalProceeds      decimal.Decimal `json:"total_proceeds"`
	NetValue           decimal.Decimal `json:"net_value"`
	TransactionCount   int             `json:"transaction_count"`
	ActiveHoldingCount int             `json:"active_holding_count"`
}

// ProfitLoss is the unrealized gain of one holding against a current price.
type ProfitLoss struct {
	Amount decimal.Decimal `json:"amount"`
	// Percentage is nil when the average price is zero.
	Percentage *decimal.Decimal `json:"percentage"`
}

// Quote is a user-entered current price for one symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HoldingWithValue combines a holding with a quote for market-value views.
type HoldingWithValue struct {
	Holding
	CurrentPrice *decimal.Decimal `json:"current_price"`
	MarketValue  *decimal.Decimal `json:"market_value"`
	Unrealized   *ProfitLoss      `json:"unrealized"`
	Status       string           `json:"status"` // "OK" or "UNAVAILABLE"
}
