package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/backend/src/database"
	"github.com/username/stockfolio/backend/src/logger"
	"github.com/username/stockfolio/backend/src/models"
)

var (
	ErrInvalidQuoteSymbol = errors.New("quote symbol is required")
	ErrInvalidQuotePrice  = errors.New("quote price must be positive")
)

// quoteServiceImpl stores user-entered prices in the quotes table. Live
// market data is deliberately out of scope; the user keys in the prices
// they want their unrealized P/L measured against.
type quoteServiceImpl struct{}

func NewQuoteService() QuoteService {
	return &quoteServiceImpl{}
}

func (s *quoteServiceImpl) ListQuotes(userID int64) ([]models.Quote, error) {
	quotes, err := models.ListQuotesByUser(database.DB, userID)
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	return quotes, nil
}

func (s *quoteServiceImpl) SetQuote(userID int64, symbol string, price decimal.Decimal) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidQuoteSymbol
	}
	if !price.IsPositive() {
		return nil, ErrInvalidQuotePrice
	}
	q := &models.Quote{Symbol: symbol, Price: price}
	if err := models.UpsertQuote(database.DB, userID, q); err != nil {
		return nil, err
	}
	logger.L.Debug("Quote stored", "userID", userID, "symbol", symbol, "price", price)
	return q, nil
}
