package models

import (
	"database/sql"
	"errors"
	"time"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// InsertTransaction persists a validated transaction. The symbol is stored
// normalized so the database never accumulates case/whitespace variants.
func InsertTransaction(db *sql.DB, t *Transaction, userID int64) error {
	query := `
	INSERT INTO transactions (id, portfolio_id, user_id, symbol, stock_name, side, quantity, price, date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	t.Symbol = NormalizeSymbol(t.Symbol)
	t.CreatedAt = time.Now()
	_, err = stmt.Exec(
		t.ID,
		t.PortfolioID,
		userID,
		t.Symbol,
		t.StockName,
		string(t.Side),
		t.Quantity,
		t.Price,
		t.Date,
		t.CreatedAt,
	)
	return err
}

// GetTransactionByID retrieves one transaction scoped to its owning user.
func GetTransactionByID(db *sql.DB, id string, userID int64) (*Transaction, error) {
	query := `
	SELECT id, portfolio_id, symbol, stock_name, side, quantity, price, date, created_at
	FROM transactions
	WHERE id = ? AND user_id = ?`

	row := db.QueryRow(query, id, userID)
	var t Transaction
	var side string
	err := row.Scan(&t.ID, &t.PortfolioID, &t.Symbol, &t.StockName, &side, &t.Quantity, &t.Price, &t.Date, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	t.Side = Side(side)
	return &t, nil
}

// ListTransactionsByPortfolio returns every transaction of one portfolio,
// oldest first with insertion order breaking date ties. That ordering is the
// stable secondary key the holdings computation relies on.
func ListTransactionsByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]Transaction, error) {
	query := `
	SELECT id, portfolio_id, symbol, stock_name, side, quantity, price, date, created_at
	FROM transactions
	WHERE portfolio_id = ? AND user_id = ?
	ORDER BY date ASC, created_at ASC, id ASC`

	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var side string
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Symbol, &t.StockName, &side, &t.Quantity, &t.Price, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Side = Side(side)
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// UpdateTransaction replaces the editable fields of an existing transaction.
// The id, portfolio and owner never change through an edit.
func UpdateTransaction(db *sql.DB, t *Transaction, userID int64) error {
	query := `
	UPDATE transactions
	SET symbol = ?, stock_name = ?, side = ?, quantity = ?, price = ?, date = ?
	WHERE id = ? AND user_id = ?`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	t.Symbol = NormalizeSymbol(t.Symbol)
	result, err := stmt.Exec(t.Symbol, t.StockName, string(t.Side), t.Quantity, t.Price, t.Date, t.ID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes one transaction scoped to its owning user.
func DeleteTransaction(db *sql.DB, id string, userID int64) error {
	result, err := db.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// deleteTransactionsByPortfolio runs inside the portfolio-delete transaction
// so the cascade and the portfolio row removal commit or roll back together.
func deleteTransactionsByPortfolio(tx *sql.Tx, portfolioID string, userID int64) error {
	_, err := tx.Exec(`DELETE FROM transactions WHERE portfolio_id = ? AND user_id = ?`, portfolioID, userID)
	return err
}
