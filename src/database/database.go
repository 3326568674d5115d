package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/stockfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateUserTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		auth_provider TEXT DEFAULT 'local',
		is_email_verified BOOLEAN DEFAULT FALSE,
		email_verification_token TEXT,
		email_verification_token_expires_at TIMESTAMP,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		stock_name TEXT,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(portfolio_id) REFERENCES portfolios(id),
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_portfolio ON transactions(portfolio_id);
	CREATE INDEX IF NOT EXISTS idx_portfolios_user ON portfolios(user_id);

	CREATE TABLE IF NOT EXISTS quotes (
		user_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		price TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY(user_id, symbol),
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// tableColumns returns the set of column names for an existing table.
// An empty map with ok=false means the table does not exist yet.
func tableColumns(table string) (map[string]bool, bool) {
	var name string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	if err != nil {
		if err != sql.ErrNoRows {
			logError("Error checking for table", "table", table, "error", err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		logError("Error querying table schema", "table", table, "error", err)
		return nil, false
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid, pk, notnull int
		var colName, dataType string
		var dflt interface{}
		if err := rows.Scan(&cid, &colName, &dataType, &notnull, &dflt, &pk); err != nil {
			logError("Error scanning column info", "table", table, "error", err)
			return nil, false
		}
		columns[colName] = true
	}
	if err := rows.Err(); err != nil {
		logError("Error iterating over column info", "table", table, "error", err)
		return nil, false
	}
	return columns, true
}

func ensureColumn(table, column, ddl string) {
	columns, ok := tableColumns(table)
	if !ok {
		return
	}
	if columns[column] {
		return
	}
	if _, err := DB.Exec("ALTER TABLE " + table + " ADD COLUMN " + ddl); err != nil {
		logError("Error adding column", "table", table, "column", column, "error", err)
		return
	}
	if logger.L != nil {
		logger.L.Info("Added column via migration", "table", table, "column", column)
	}
}

// migrateUserTable adds columns introduced after the first release to
// databases created with the original users schema.
func migrateUserTable() {
	ensureColumn("users", "email", "email TEXT NOT NULL DEFAULT ''")
	ensureColumn("users", "auth_provider", "auth_provider TEXT DEFAULT 'local'")
	ensureColumn("users", "is_email_verified", "is_email_verified BOOLEAN DEFAULT FALSE")
	ensureColumn("users", "email_verification_token", "email_verification_token TEXT")
	ensureColumn("users", "email_verification_token_expires_at", "email_verification_token_expires_at TIMESTAMP")
	ensureColumn("users", "password_reset_token", "password_reset_token TEXT")
	ensureColumn("users", "password_reset_token_expires_at", "password_reset_token_expires_at TIMESTAMP")
	ensureColumn("users", "created_at", "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	ensureColumn("users", "updated_at", "updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
}

func logError(msg string, args ...interface{}) {
	if logger.L != nil {
		logger.L.Error(msg, args...)
	} else {
		stdlog.Println(msg, args)
	}
}
