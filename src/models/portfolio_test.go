package models

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
	CREATE TABLE portfolios (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		stock_name TEXT,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`)
	require.NoError(t, err)
	return db
}

func seedPortfolioWithTransactions(t *testing.T, db *sql.DB, portfolioID string, userID int64, txIDs ...string) {
	t.Helper()
	require.NoError(t, CreatePortfolio(db, &Portfolio{
		ID:     portfolioID,
		UserID: userID,
		Name:   "Growth",
	}))
	for _, txID := range txIDs {
		require.NoError(t, InsertTransaction(db, &Transaction{
			ID:          txID,
			PortfolioID: portfolioID,
			Symbol:      "AAPL",
			Side:        SideBuy,
			Quantity:    decimal.NewFromInt(10),
			Price:       decimal.NewFromInt(150),
			Date:        "2024-01-15",
		}, userID))
	}
}

func countTransactions(t *testing.T, db *sql.DB, portfolioID string) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE portfolio_id = ?`, portfolioID).Scan(&count))
	return count
}

func TestDeletePortfolioCascadesTransactions(t *testing.T) {
	db := newTestDB(t)
	const userID = int64(1)

	seedPortfolioWithTransactions(t, db, "p-1", userID, "tx-1", "tx-2", "tx-3")
	require.Equal(t, 3, countTransactions(t, db, "p-1"))

	require.NoError(t, DeletePortfolio(db, "p-1", userID))

	assert.Equal(t, 0, countTransactions(t, db, "p-1"), "transactions must be removed with their portfolio")
	_, err := GetPortfolioByID(db, "p-1", userID)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestDeletePortfolioNotFoundRollsBack(t *testing.T) {
	db := newTestDB(t)
	const ownerID = int64(1)

	seedPortfolioWithTransactions(t, db, "p-1", ownerID, "tx-1", "tx-2")

	t.Run("unknown portfolio id", func(t *testing.T) {
		err := DeletePortfolio(db, "p-missing", ownerID)
		assert.ErrorIs(t, err, ErrPortfolioNotFound)
		assert.Equal(t, 2, countTransactions(t, db, "p-1"))
	})

	t.Run("portfolio owned by another user", func(t *testing.T) {
		const intruderID = int64(99)
		err := DeletePortfolio(db, "p-1", intruderID)
		assert.ErrorIs(t, err, ErrPortfolioNotFound)

		// The rollback must leave the owner's data untouched.
		assert.Equal(t, 2, countTransactions(t, db, "p-1"))
		p, getErr := GetPortfolioByID(db, "p-1", ownerID)
		require.NoError(t, getErr)
		assert.Equal(t, "Growth", p.Name)
	})
}
