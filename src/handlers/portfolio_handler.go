package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/stockfolio/backend/src/logger"
	"github.com/username/stockfolio/backend/src/models"
	"github.com/username/stockfolio/backend/src/processors"
	"github.com/username/stockfolio/backend/src/services"
	"github.com/username/stockfolio/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// respondServiceError maps service-layer errors onto HTTP statuses. Every
// handler in this package funnels its service errors through here so the
// API surface stays consistent.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *processors.ValidationError
	var oversellErr *processors.OversellError

	switch {
	case errors.As(err, &validationErr):
		utils.SendJSONError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidPortfolioName),
		errors.Is(err, services.ErrInvalidQuoteSymbol),
		errors.Is(err, services.ErrInvalidQuotePrice):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrPortfolioNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &oversellErr):
		utils.SendJSONError(w, oversellErr.Error(), http.StatusUnprocessableEntity)
	default:
		logger.L.Error("Unhandled service error", "error", err)
		utils.SendJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

type portfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PortfolioHandler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(userID, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(portfolio)
}

func (h *PortfolioHandler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	portfolios, err := h.portfolioService.ListPortfolios(userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolios)
}

func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(userID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolio)
}

func (h *PortfolioHandler) HandleUpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(userID, r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolio)
}

func (h *PortfolioHandler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.portfolioService.DeletePortfolio(userID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) HandleGetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summary, err := h.portfolioService.GetPortfolioSummary(userID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if etag, etagErr := utils.GenerateETag(summary); etagErr == nil {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	includeClosed := query.Get("includeClosed") == "true"
	lenient := query.Get("lenient") == "true"

	report, err := h.portfolioService.GetHoldings(userID, r.PathValue("id"), includeClosed, lenient)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *PortfolioHandler) HandleGetHoldingsValue(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	holdings, err := h.portfolioService.GetHoldingsWithValue(userID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if holdings == nil {
		holdings = []models.HoldingWithValue{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holdings)
}
