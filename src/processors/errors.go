package processors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports a malformed transaction record. The aggregation
// functions never repair or skip bad records silently; the offending record
// is identified so the caller can surface it.
type ValidationError struct {
	TransactionID string
	Reason        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction %s: %s", e.TransactionID, e.Reason)
}

// OversellError reports a sell whose quantity exceeds the running held
// quantity for its symbol. Raised in strict mode; lenient mode clamps the
// sell and records an OversellWarning instead.
type OversellError struct {
	Symbol        string
	TransactionID string
	Attempted     decimal.Decimal
	Held          decimal.Decimal
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("oversell of %s in transaction %s: attempted to sell %s with only %s held",
		e.Symbol, e.TransactionID, e.Attempted, e.Held)
}

// OversellWarning records a clamped oversell in lenient mode.
type OversellWarning struct {
	Symbol        string          `json:"symbol"`
	TransactionID string          `json:"transaction_id"`
	Attempted     decimal.Decimal `json:"attempted"`
	Held          decimal.Decimal `json:"held"`
}

func (w OversellWarning) String() string {
	return fmt.Sprintf("oversell of %s in transaction %s clamped: attempted %s, held %s",
		w.Symbol, w.TransactionID, w.Attempted, w.Held)
}
