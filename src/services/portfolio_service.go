package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/backend/src/database"
	"github.com/username/stockfolio/backend/src/logger"
	"github.com/username/stockfolio/backend/src/models"
	"github.com/username/stockfolio/backend/src/processors"
	"github.com/username/stockfolio/backend/src/security/validation"
)

const (
	// Cached computed reports, keyed per portfolio and user. Every
	// mutation of a portfolio's transactions invalidates its entries.
	ckPortfolioSummary = "res_portfolio_summary_%s_user_%d"
	ckActiveHoldings   = "res_active_holdings_%s_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var ErrInvalidPortfolioName = errors.New("portfolio name is required")

type portfolioServiceImpl struct {
	holdingsProcessor *processors.HoldingsProcessor
	reportCache       *cache.Cache
}

func NewPortfolioService(holdingsProcessor *processors.HoldingsProcessor, reportCache *cache.Cache) PortfolioService {
	return &portfolioServiceImpl{
		holdingsProcessor: holdingsProcessor,
		reportCache:       reportCache,
	}
}

func (s *portfolioServiceImpl) invalidatePortfolioCache(portfolioID string, userID int64) {
	if s.reportCache == nil {
		return
	}
	s.reportCache.Delete(fmt.Sprintf(ckPortfolioSummary, portfolioID, userID))
	s.reportCache.Delete(fmt.Sprintf(ckActiveHoldings, portfolioID, userID))
}

func (s *portfolioServiceImpl) CreatePortfolio(userID int64, name, description string) (*models.Portfolio, error) {
	name = validation.StripUnprintable(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrInvalidPortfolioName
	}
	p := &models.Portfolio{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: validation.StripUnprintable(strings.TrimSpace(description)),
	}
	if err := models.CreatePortfolio(database.DB, p); err != nil {
		return nil, fmt.Errorf("creating portfolio: %w", err)
	}
	logger.L.Info("Portfolio created", "portfolioID", p.ID, "userID", userID)
	return p, nil
}

func (s *portfolioServiceImpl) ListPortfolios(userID int64) ([]models.Portfolio, error) {
	return models.ListPortfoliosByUser(database.DB, userID)
}

func (s *portfolioServiceImpl) GetPortfolio(userID int64, portfolioID string) (*models.Portfolio, error) {
	return models.GetPortfolioByID(database.DB, portfolioID, userID)
}

func (s *portfolioServiceImpl) UpdatePortfolio(userID int64, portfolioID, name, description string) (*models.Portfolio, error) {
	p, err := models.GetPortfolioByID(database.DB, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	name = validation.StripUnprintable(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrInvalidPortfolioName
	}
	p.Name = name
	p.Description = validation.StripUnprintable(strings.TrimSpace(description))
	if err := models.UpdatePortfolio(database.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *portfolioServiceImpl) DeletePortfolio(userID int64, portfolioID string) error {
	if err := models.DeletePortfolio(database.DB, portfolioID, userID); err != nil {
		return err
	}
	s.invalidatePortfolioCache(portfolioID, userID)
	logger.L.Info("Portfolio deleted with its transactions", "portfolioID", portfolioID, "userID", userID)
	return nil
}

// buildTransaction turns a request payload into a validated Transaction.
func buildTransaction(id, portfolioID string, input TransactionInput) (*models.Transaction, error) {
	side, err := models.ParseSide(input.Side)
	if err != nil {
		return nil, &processors.ValidationError{TransactionID: id, Reason: err.Error()}
	}
	t := &models.Transaction{
		ID:          id,
		PortfolioID: portfolioID,
		Symbol:      models.NormalizeSymbol(input.Symbol),
		StockName:   validation.StripUnprintable(strings.TrimSpace(input.StockName)),
		Side:        side,
		Quantity:    input.Quantity,
		Price:       input.Price,
		Date:        strings.TrimSpace(input.Date),
	}
	if err := t.Validate(); err != nil {
		return nil, &processors.ValidationError{TransactionID: id, Reason: err.Error()}
	}
	return t, nil
}

func (s *portfolioServiceImpl) CreateTransaction(userID int64, portfolioID string, input TransactionInput) (*models.Transaction, error) {
	if _, err := models.GetPortfolioByID(database.DB, portfolioID, userID); err != nil {
		return nil, err
	}
	t, err := buildTransaction(uuid.NewString(), portfolioID, input)
	if err != nil {
		return nil, err
	}
	if err := models.InsertTransaction(database.DB, t, userID); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	s.invalidatePortfolioCache(portfolioID, userID)
	return t, nil
}

func (s *portfolioServiceImpl) GetTransaction(userID int64, transactionID string) (*models.Transaction, error) {
	return models.GetTransactionByID(database.DB, transactionID, userID)
}

func (s *portfolioServiceImpl) ListTransactions(userID int64, portfolioID string) ([]models.Transaction, error) {
	if _, err := models.GetPortfolioByID(database.DB, portfolioID, userID); err != nil {
		return nil, err
	}
	return models.ListTransactionsByPortfolio(database.DB, portfolioID, userID)
}

func (s *portfolioServiceImpl) UpdateTransaction(userID int64, transactionID string, input TransactionInput) (*models.Transaction, error) {
	existing, err := models.GetTransactionByID(database.DB, transactionID, userID)
	if err != nil {
		return nil, err
	}
	t, err := buildTransaction(existing.ID, existing.PortfolioID, input)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = existing.CreatedAt
	if err := models.UpdateTransaction(database.DB, t, userID); err != nil {
		return nil, err
	}
	s.invalidatePortfolioCache(existing.PortfolioID, userID)
	return t, nil
}

func (s *portfolioServiceImpl) DeleteTransaction(userID int64, transactionID string) error {
	existing, err := models.GetTransactionByID(database.DB, transactionID, userID)
	if err != nil {
		return err
	}
	if err := models.DeleteTransaction(database.DB, transactionID, userID); err != nil {
		return err
	}
	s.invalidatePortfolioCache(existing.PortfolioID, userID)
	return nil
}

func (s *portfolioServiceImpl) GetPortfolioSummary(userID int64, portfolioID string) (*models.PortfolioSummary, error) {
	cacheKey := fmt.Sprintf(ckPortfolioSummary, portfolioID, userID)
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(cacheKey); found {
			if summary, ok := cached.(*models.PortfolioSummary); ok {
				logger.L.Debug("Portfolio summary served from cache", "portfolioID", portfolioID, "userID", userID)
				return summary, nil
			}
		}
	}

	transactions, err := s.ListTransactions(userID, portfolioID)
	if err != nil {
		return nil, err
	}
	summary, err := s.holdingsProcessor.ComputeSummary(transactions)
	if err != nil {
		return nil, err
	}

	if s.reportCache != nil {
		s.reportCache.Set(cacheKey, &summary, DefaultCacheExpiration)
	}
	return &summary, nil
}

func (s *portfolioServiceImpl) GetHoldings(userID int64, portfolioID string, includeClosed, lenient bool) (*HoldingsReport, error) {
	transactions, err := s.ListTransactions(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	processor := s.holdingsProcessor
	if lenient {
		processor = &processors.HoldingsProcessor{Lenient: true}
	}

	var holdings []models.Holding
	var warnings []processors.OversellWarning
	if includeClosed {
		holdings, warnings, err = processor.ComputeHoldings(transactions)
	} else {
		holdings, warnings, err = processor.ComputeActiveHoldings(transactions)
	}
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return &HoldingsReport{Holdings: holdings, Warnings: warnings}, nil
}

// GetHoldingsWithValue joins the active holdings with the user's manual
// quotes. Holdings without a quote fall back to their cost basis and are
// marked UNAVAILABLE, mirroring what the portfolio page displays.
func (s *portfolioServiceImpl) GetHoldingsWithValue(userID int64, portfolioID string) ([]models.HoldingWithValue, error) {
	cacheKey := fmt.Sprintf(ckActiveHoldings, portfolioID, userID)
	var holdings []models.Holding
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(cacheKey); found {
			if cachedHoldings, ok := cached.([]models.Holding); ok {
				holdings = cachedHoldings
			}
		}
	}
	if holdings == nil {
		report, err := s.GetHoldings(userID, portfolioID, false, false)
		if err != nil {
			return nil, err
		}
		holdings = report.Holdings
		if s.reportCache != nil {
			s.reportCache.Set(cacheKey, holdings, DefaultCacheExpiration)
		}
	}

	prices, err := models.QuoteMapByUser(database.DB, userID)
	if err != nil {
		// Holdings are still useful without quotes; degrade to purchase data.
		logger.L.Warn("Could not load quotes, returning holdings without market values", "userID", userID, "error", err)
		prices = map[string]decimal.Decimal{}
	}

	response := make([]models.HoldingWithValue, 0, len(holdings))
	for _, holding := range holdings {
		entry := models.HoldingWithValue{Holding: holding, Status: "UNAVAILABLE"}
		if price, found := prices[holding.Symbol]; found {
			marketValue := price.Mul(holding.Quantity)
			entry.CurrentPrice = &price
			entry.MarketValue = &marketValue
			entry.Unrealized = s.holdingsProcessor.ComputeProfitLoss(holding, price)
			entry.Status = "OK"
		} else if holding.AveragePrice != nil {
			fallback := *holding.AveragePrice
			marketValue := holding.TotalCost
			entry.CurrentPrice = &fallback
			entry.MarketValue = &marketValue
		}
		response = append(response, entry)
	}
	return response, nil
}
