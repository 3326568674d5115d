package services

import (
	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/backend/src/models"
	"github.com/username/stockfolio/backend/src/processors"
)

// TransactionInput carries the user-supplied fields of a transaction
// create/edit request. It is validated before anything is persisted.
type TransactionInput struct {
	Symbol    string          `json:"symbol"`
	StockName string          `json:"stock_name"`
	Side      string          `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Date      string          `json:"date"`
}

// HoldingsReport pairs computed holdings with any oversell warnings
// produced in lenient mode.
type HoldingsReport struct {
	Holdings []models.Holding             `json:"holdings"`
	Warnings []processors.OversellWarning `json:"warnings,omitempty"`
}

// PortfolioService is the application core behind the portfolio and
// transaction endpoints. All methods are scoped by the authenticated
// user id passed explicitly; nothing reads ambient identity state.
type PortfolioService interface {
	CreatePortfolio(userID int64, name, description string) (*models.Portfolio, error)
	ListPortfolios(userID int64) ([]models.Portfolio, error)
	GetPortfolio(userID int64, portfolioID string) (*models.Portfolio, error)
	UpdatePortfolio(userID int64, portfolioID, name, description string) (*models.Portfolio, error)
	DeletePortfolio(userID int64, portfolioID string) error

	CreateTransaction(userID int64, portfolioID string, input TransactionInput) (*models.Transaction, error)
	GetTransaction(userID int64, transactionID string) (*models.Transaction, error)
	ListTransactions(userID int64, portfolioID string) ([]models.Transaction, error)
	UpdateTransaction(userID int64, transactionID string, input TransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID int64, transactionID string) error

	GetPortfolioSummary(userID int64, portfolioID string) (*models.PortfolioSummary, error)
	GetHoldings(userID int64, portfolioID string, includeClosed, lenient bool) (*HoldingsReport, error)
	GetHoldingsWithValue(userID int64, portfolioID string) ([]models.HoldingWithValue, error)
}

// QuoteService stores user-entered current prices. There is no live market
// data feed; unrealized P/L is computed against these manual quotes.
type QuoteService interface {
	ListQuotes(userID int64) ([]models.Quote, error)
	SetQuote(userID int64, symbol string, price decimal.Decimal) (*models.Quote, error)
}
