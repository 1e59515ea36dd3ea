package yenfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// snapshotRetentionDays bounds the persisted history, matching the daily
// snapshot cadence: one entry per day for a year.
const snapshotRetentionDays = 365

// SaveSnapshot upserts a snapshot by date. The history is one entry per
// calendar day; a new snapshot for an existing date replaces the old one.
func (c *Core) SaveSnapshot(snapshot PortfolioSnapshot) error {
	if err := validateISODate(snapshot.Date); err != nil {
		return err
	}
	if snapshot.Timestamp == "" {
		snapshot.Timestamp = NowRFC3339InTokyo()
	}
	_, err := c.db.Exec(`
		INSERT INTO snapshots (snapshot_date, created_at, stock_value, crypto_value, total_value, exchange_rate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date) DO UPDATE SET
			created_at = excluded.created_at,
			stock_value = excluded.stock_value,
			crypto_value = excluded.crypto_value,
			total_value = excluded.total_value,
			exchange_rate = excluded.exchange_rate
	`, snapshot.Date, snapshot.Timestamp, snapshot.StockValue, snapshot.CryptoValue,
		snapshot.TotalValue, snapshot.ExchangeRate)
	if err != nil {
		return WrapError(ErrCodeDatabase, "save snapshot", err)
	}
	return c.pruneSnapshots()
}

func (c *Core) pruneSnapshots() error {
	_, err := c.db.Exec(`
		DELETE FROM snapshots WHERE snapshot_date NOT IN (
			SELECT snapshot_date FROM snapshots ORDER BY snapshot_date DESC LIMIT ?
		)
	`, snapshotRetentionDays)
	if err != nil {
		return WrapError(ErrCodeDatabase, "prune snapshots", err)
	}
	return nil
}

// GetSnapshotHistory returns the persisted series in ascending date order.
// NULL values are preserved as nil pointers, never coerced to zero.
func (c *Core) GetSnapshotHistory() ([]PortfolioSnapshot, error) {
	rows, err := c.db.Query(`
		SELECT snapshot_date, created_at, stock_value, crypto_value, total_value, exchange_rate
		FROM snapshots ORDER BY snapshot_date
	`)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load snapshot history", err)
	}
	defer rows.Close()

	var history []PortfolioSnapshot
	for rows.Next() {
		var snapshot PortfolioSnapshot
		var stockValue, cryptoValue, totalValue any
		if err := rows.Scan(&snapshot.Date, &snapshot.Timestamp, &stockValue, &cryptoValue, &totalValue, &snapshot.ExchangeRate); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan snapshot", err)
		}
		if snapshot.StockValue, err = scanNullAmount(stockValue); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan stock value", err)
		}
		if snapshot.CryptoValue, err = scanNullAmount(cryptoValue); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan crypto value", err)
		}
		if snapshot.TotalValue, err = scanNullAmount(totalValue); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan total value", err)
		}
		history = append(history, snapshot)
	}
	return history, rows.Err()
}

// CreateSnapshot fetches live prices and persists today's valuation.
// Unpriced holdings contribute zero to their bucket; a bucket with no
// priced holding at all is recorded as NULL so later consumers can tell
// "no data" from a genuine zero. Values are rounded to whole yen.
func (c *Core) CreateSnapshot() (PortfolioSnapshot, error) {
	holdings, err := c.GetHoldings()
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	prices, rate := c.price.fetchHomePrices(holdings)

	var stockValue, cryptoValue float64
	stockPriced, cryptoPriced := 0, 0
	for _, h := range holdings {
		price, ok := prices.Lookup(h.Symbol)
		if !ok {
			c.logger.Warn("no price for holding, contributes zero", "symbol", h.Symbol)
			continue
		}
		value := HoldingValue(h, price)
		if h.Kind == KindCrypto {
			cryptoValue += value
			cryptoPriced++
		} else {
			stockValue += value
			stockPriced++
		}
	}

	snapshot := PortfolioSnapshot{
		Date:         todayISO(),
		Timestamp:    NowRFC3339InTokyo(),
		ExchangeRate: rate,
	}
	hasStocks, hasCrypto := false, false
	for _, h := range holdings {
		if h.Kind == KindCrypto {
			hasCrypto = true
		} else {
			hasStocks = true
		}
	}
	if !hasStocks || stockPriced > 0 {
		snapshot.StockValue = amountPtr(roundYen(stockValue))
	}
	if !hasCrypto || cryptoPriced > 0 {
		snapshot.CryptoValue = amountPtr(roundYen(cryptoValue))
	}
	if snapshot.StockValue != nil && snapshot.CryptoValue != nil {
		total := snapshot.StockValue.Add(snapshot.CryptoValue.Decimal)
		snapshot.TotalValue = amountPtr(Amount{total})
	}

	if err := c.SaveSnapshot(snapshot); err != nil {
		return PortfolioSnapshot{}, err
	}
	c.logOperation("create_snapshot", nil, fmt.Sprintf("snapshot for %s", snapshot.Date))
	c.logger.Info("snapshot created",
		"date", snapshot.Date,
		"stock_value", snapshot.StockValue,
		"crypto_value", snapshot.CryptoValue,
		"total_value", snapshot.TotalValue,
		"exchange_rate", rate,
	)
	return snapshot, nil
}

func roundYen(value float64) Amount {
	return Amount{decimal.NewFromFloat(value).Round(0)}
}
