package yenfolio

import "database/sql"

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS holdings (
			symbol TEXT PRIMARY KEY,
			name TEXT,
			kind TEXT NOT NULL DEFAULT 'stock',
			quantity REAL NOT NULL DEFAULT 0
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS cost_basis (
			symbol TEXT PRIMARY KEY,
			avg_cost REAL NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD'
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS capital_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_date TEXT NOT NULL,
			amount REAL NOT NULL,
			kind TEXT NOT NULL DEFAULT 'deposit',
			note TEXT
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			snapshot_date TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			stock_value REAL,
			crypto_value REAL,
			total_value REAL,
			exchange_rate REAL NOT NULL DEFAULT 0
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS annual_performance (
			year INTEGER PRIMARY KEY,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			start_value REAL,
			end_value REAL,
			current_balance REAL,
			actual_profit REAL,
			return_percent REAL,
			capital_added REAL NOT NULL DEFAULT 0,
			capital_withdrawn REAL NOT NULL DEFAULT 0,
			net_capital_change REAL NOT NULL DEFAULT 0,
			stocks_profit REAL,
			crypto_profit REAL,
			notes TEXT NOT NULL DEFAULT '',
			calculation_method TEXT NOT NULL DEFAULT 'automatic',
			formula TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trade_date TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			amount_home REAL NOT NULL,
			note TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS operation_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_type TEXT NOT NULL,
			symbol TEXT,
			details TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, "CREATE INDEX IF NOT EXISTS idx_capital_events_date ON capital_events(event_date)"); err != nil {
		return err
	}
	if err := exec(tx, "CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(trade_date)"); err != nil {
		return err
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}
