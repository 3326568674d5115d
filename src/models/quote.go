package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// UpsertQuote records or replaces the user-entered current price for a symbol.
func UpsertQuote(db *sql.DB, userID int64, q *Quote) error {
	query := `
	INSERT INTO quotes (user_id, symbol, price, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, symbol) DO UPDATE SET price = excluded.price, updated_at = excluded.updated_at`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	q.Symbol = NormalizeSymbol(q.Symbol)
	q.UpdatedAt = time.Now()
	_, err = stmt.Exec(userID, q.Symbol, q.Price, q.UpdatedAt)
	return err
}

// ListQuotesByUser returns every quote the user has entered.
func ListQuotesByUser(db *sql.DB, userID int64) ([]Quote, error) {
	rows, err := db.Query(`SELECT symbol, price, updated_at FROM quotes WHERE user_id = ? ORDER BY symbol ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.Symbol, &q.Price, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// QuoteMapByUser returns the user's quotes keyed by normalized symbol.
func QuoteMapByUser(db *sql.DB, userID int64) (map[string]decimal.Decimal, error) {
	quotes, err := ListQuotesByUser(db, userID)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		prices[NormalizeSymbol(q.Symbol)] = q.Price
	}
	return prices, nil
}
