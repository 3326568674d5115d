package models

import (
	"database/sql"
	"errors"
	"time"
)

var ErrPortfolioNotFound = errors.New("portfolio not found")

// CreatePortfolio inserts a new portfolio for the given user.
func CreatePortfolio(db *sql.DB, p *Portfolio) error {
	query := `
	INSERT INTO portfolios (id, user_id, name, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err = stmt.Exec(p.ID, p.UserID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPortfolioByID retrieves one portfolio scoped to its owning user.
func GetPortfolioByID(db *sql.DB, id string, userID int64) (*Portfolio, error) {
	query := `
	SELECT id, user_id, name, description, created_at, updated_at
	FROM portfolios
	WHERE id = ? AND user_id = ?`

	row := db.QueryRow(query, id, userID)
	var p Portfolio
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPortfoliosByUser returns all portfolios of one user, newest first.
func ListPortfoliosByUser(db *sql.DB, userID int64) ([]Portfolio, error) {
	query := `
	SELECT id, user_id, name, description, created_at, updated_at
	FROM portfolios
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return portfolios, nil
}

// UpdatePortfolio replaces the name and description of an existing portfolio.
func UpdatePortfolio(db *sql.DB, p *Portfolio) error {
	query := `
	UPDATE portfolios
	SET name = ?, description = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	p.UpdatedAt = time.Now()
	result, err := stmt.Exec(p.Name, p.Description, p.UpdatedAt, p.ID, p.UserID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// DeletePortfolio removes a portfolio and all of its transactions in one SQL
// transaction. Dependent transactions go first so an interrupted delete can
// never leave orphaned records behind.
func DeletePortfolio(db *sql.DB, id string, userID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteTransactionsByPortfolio(tx, id, userID); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM portfolios WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPortfolioNotFound
	}

	return tx.Commit()
}
