package yenfolio

import "database/sql"

// AddOperationLog adds a new operation log entry.
func (c *Core) AddOperationLog(log OperationLog) (int64, error) {
	result, err := c.db.Exec(`
		INSERT INTO operation_logs (operation_type, symbol, details)
		VALUES (?, ?, ?)
	`, log.Operation, log.Symbol, log.Details)
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "insert operation log", err)
	}
	return result.LastInsertId()
}

// logOperation is the fire-and-forget variant used from business operations.
// A failed audit write is logged but never fails the operation itself.
func (c *Core) logOperation(operation string, symbol *string, details string) {
	var detailsPtr *string
	if details != "" {
		detailsPtr = &details
	}
	if _, err := c.AddOperationLog(OperationLog{Operation: operation, Symbol: symbol, Details: detailsPtr}); err != nil {
		c.logger.Warn("operation log write failed", "operation", operation, "err", err)
	}
}

// GetOperationLogs returns recent operation logs, newest first.
func (c *Core) GetOperationLogs(limit, offset int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := c.db.Query(
		"SELECT id, operation_type, symbol, details, created_at FROM operation_logs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load operation logs", err)
	}
	defer rows.Close()

	var logs []OperationLog
	for rows.Next() {
		var log OperationLog
		var symbol, details, createdAt sql.NullString
		if err := rows.Scan(&log.ID, &log.Operation, &symbol, &details, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan operation log", err)
		}
		if symbol.Valid {
			log.Symbol = &symbol.String
		}
		if details.Valid {
			log.Details = &details.String
		}
		if createdAt.Valid {
			log.CreatedAt = &createdAt.String
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
