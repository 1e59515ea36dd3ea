package yenfolio

import (
	"context"
	"database/sql"
	"fmt"
)

// ProcessTrade records a trade and ripples it through the books: the
// holding quantity is adjusted (the position is removed at zero), buys
// reweight the average cost basis, and the capital moved is appended to the
// ledger as a trade-driven event. Everything happens in one transaction.
func (c *Core) ProcessTrade(req TradeRequest) (TradeResult, error) {
	if err := validateISODate(req.Date); err != nil {
		return TradeResult{}, err
	}
	req.Symbol = normalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		return TradeResult{}, NewError(ErrCodeInvalidInput, "symbol is required")
	}
	if req.Side != SideBuy && req.Side != SideSell {
		return TradeResult{}, NewError(ErrCodeInvalidInput, "side must be buy or sell")
	}
	if req.Quantity <= 0 {
		return TradeResult{}, NewError(ErrCodeInvalidInput, "quantity must be positive")
	}
	if req.Price < 0 {
		return TradeResult{}, NewError(ErrCodeInvalidInput, "price must not be negative")
	}
	kind := normalizeKind(req.Kind)
	if kind == "" {
		kind = KindStock
	}
	if !isValidKind(kind) {
		return TradeResult{}, NewError(ErrCodeInvalidInput, "invalid holding kind: "+kind)
	}

	var result TradeResult
	err := c.WithTx(context.Background(), func(tx *sql.Tx) error {
		insert, err := tx.Exec(`
			INSERT INTO trades (trade_date, symbol, side, quantity, price, amount_home, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, req.Date, req.Symbol, req.Side, req.Quantity, req.Price, req.AmountHome, req.Note)
		if err != nil {
			return WrapError(ErrCodeDatabase, "insert trade", err)
		}
		if result.TradeID, err = insert.LastInsertId(); err != nil {
			return WrapError(ErrCodeDatabase, "trade id", err)
		}

		var currentQty float64
		var currentKind string
		err = tx.QueryRow("SELECT quantity, kind FROM holdings WHERE symbol = ?", req.Symbol).
			Scan(&currentQty, &currentKind)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			return WrapError(ErrCodeDatabase, "load holding", err)
		}

		if req.Side == SideSell {
			if !exists {
				return NewError(ErrCodeNotFound, "cannot sell unknown holding: "+req.Symbol)
			}
			if req.Quantity > currentQty {
				return NewError(ErrCodeValidation,
					fmt.Sprintf("cannot sell %v of %s, only %v held", req.Quantity, req.Symbol, currentQty))
			}
		}

		newQty := currentQty
		if req.Side == SideBuy {
			newQty += req.Quantity
		} else {
			newQty -= req.Quantity
		}
		result.NewQuantity = newQty

		switch {
		case newQty <= 0:
			if _, err := tx.Exec("DELETE FROM holdings WHERE symbol = ?", req.Symbol); err != nil {
				return WrapError(ErrCodeDatabase, "remove holding", err)
			}
			result.Removed = true
			result.NewQuantity = 0
		case exists:
			if _, err := tx.Exec("UPDATE holdings SET quantity = ? WHERE symbol = ?", newQty, req.Symbol); err != nil {
				return WrapError(ErrCodeDatabase, "update holding", err)
			}
		default:
			if _, err := tx.Exec(
				"INSERT INTO holdings (symbol, name, kind, quantity) VALUES (?, ?, ?, ?)",
				req.Symbol, req.Symbol, kind, newQty,
			); err != nil {
				return WrapError(ErrCodeDatabase, "insert holding", err)
			}
		}

		// Buys reweight the average cost; sells keep it (average-cost
		// method, the original cost per remaining unit is unchanged).
		if req.Side == SideBuy {
			if err := reweightCostBasis(tx, req.Symbol, currentQty, newQty, req.Price, isJPXSymbol(req.Symbol) || kind == KindCrypto); err != nil {
				return err
			}
		}

		event, err := tx.Exec(`
			INSERT INTO capital_events (event_date, amount, kind, note)
			VALUES (?, ?, ?, ?)
		`, req.Date, req.AmountHome, EventTrade, req.Note)
		if err != nil {
			return WrapError(ErrCodeDatabase, "insert capital event", err)
		}
		if result.CapitalEventID, err = event.LastInsertId(); err != nil {
			return WrapError(ErrCodeDatabase, "capital event id", err)
		}
		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}

	c.logOperation("process_trade", &req.Symbol,
		fmt.Sprintf("%s %v %s @ %v", req.Side, req.Quantity, req.Symbol, req.Price))
	c.logger.Info("trade processed",
		"symbol", req.Symbol, "side", req.Side,
		"quantity", req.Quantity, "new_quantity", result.NewQuantity, "removed", result.Removed)
	return result, nil
}

// reweightCostBasis folds a buy into the weighted average cost. A symbol
// without an existing entry gets one at the trade price, in the currency
// the symbol natively trades in: JPY for JPX tickers and crypto bought in
// yen, USD otherwise.
func reweightCostBasis(tx *sql.Tx, symbol string, oldQty, newQty, price float64, homeNative bool) error {
	if newQty <= 0 {
		return nil
	}
	var avgCost float64
	var currency string
	err := tx.QueryRow("SELECT avg_cost, currency FROM cost_basis WHERE symbol = ?", symbol).
		Scan(&avgCost, &currency)
	if err == sql.ErrNoRows {
		currency = "USD"
		if homeNative {
			currency = HomeCurrency
		}
		_, err := tx.Exec(
			"INSERT INTO cost_basis (symbol, avg_cost, currency) VALUES (?, ?, ?)",
			symbol, price, currency,
		)
		if err != nil {
			return WrapError(ErrCodeDatabase, "insert cost basis", err)
		}
		return nil
	}
	if err != nil {
		return WrapError(ErrCodeDatabase, "load cost basis", err)
	}

	weighted := (avgCost*oldQty + price*(newQty-oldQty)) / newQty
	if _, err := tx.Exec("UPDATE cost_basis SET avg_cost = ? WHERE symbol = ?", weighted, symbol); err != nil {
		return WrapError(ErrCodeDatabase, "update cost basis", err)
	}
	return nil
}

// GetTrades returns the trade log, most recent first.
func (c *Core) GetTrades(limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.Query(`
		SELECT id, trade_date, symbol, side, quantity, price, amount_home, note
		FROM trades ORDER BY trade_date DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load trades", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		var note sql.NullString
		if err := rows.Scan(&t.ID, &t.Date, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &t.AmountHome, &note); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan trade", err)
		}
		if note.Valid {
			t.Note = &note.String
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
