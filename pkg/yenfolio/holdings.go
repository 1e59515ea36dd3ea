package yenfolio

import (
	"database/sql"
	"sort"
)

// GetHoldings returns all positions with a non-zero quantity, largest first.
func (c *Core) GetHoldings() ([]Holding, error) {
	rows, err := c.db.Query("SELECT symbol, name, kind, quantity FROM holdings WHERE quantity > 0")
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load holdings", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		var name sql.NullString
		if err := rows.Scan(&h.Symbol, &name, &h.Kind, &h.Quantity); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan holding", err)
		}
		if name.Valid {
			h.Name = &name.String
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}

// UpsertHolding creates or replaces a position.
func (c *Core) UpsertHolding(h Holding) error {
	h.Symbol = normalizeSymbol(h.Symbol)
	h.Kind = normalizeKind(h.Kind)
	if h.Symbol == "" {
		return NewError(ErrCodeInvalidInput, "symbol is required")
	}
	if !isValidKind(h.Kind) {
		return NewError(ErrCodeInvalidInput, "invalid holding kind: "+h.Kind)
	}
	if h.Quantity < 0 {
		return NewError(ErrCodeInvalidInput, "quantity must not be negative")
	}
	_, err := c.db.Exec(`
		INSERT INTO holdings (symbol, name, kind, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			quantity = excluded.quantity
	`, h.Symbol, h.Name, h.Kind, h.Quantity)
	if err != nil {
		return WrapError(ErrCodeDatabase, "upsert holding", err)
	}
	return nil
}

// SetCostBasis records the average purchase cost for a symbol in its
// original transaction currency.
func (c *Core) SetCostBasis(symbol string, avgCost float64, currency string) error {
	symbol = normalizeSymbol(symbol)
	currency = normalizeCurrency(currency)
	if avgCost < 0 {
		return NewError(ErrCodeInvalidInput, "avg cost must not be negative")
	}
	if !isValidCurrency(currency) {
		return NewError(ErrCodeInvalidInput, "invalid currency: "+currency)
	}
	_, err := c.db.Exec(`
		INSERT INTO cost_basis (symbol, avg_cost, currency)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			avg_cost = excluded.avg_cost,
			currency = excluded.currency
	`, symbol, avgCost, currency)
	if err != nil {
		return WrapError(ErrCodeDatabase, "set cost basis", err)
	}
	return nil
}

// GetCostBasisTable loads the authoritative cost-basis table.
func (c *Core) GetCostBasisTable() (CostBasisTable, error) {
	rows, err := c.db.Query("SELECT symbol, avg_cost, currency FROM cost_basis")
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load cost basis", err)
	}
	defer rows.Close()

	table := CostBasisTable{}
	for rows.Next() {
		var symbol string
		var entry CostBasis
		if err := rows.Scan(&symbol, &entry.AvgCost, &entry.Currency); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan cost basis", err)
		}
		table[symbol] = entry
	}
	return table, rows.Err()
}

// ValuedHoldings joins holdings with live prices and cost bases for the UI.
// The home-currency price map drives all arithmetic; the display map is
// informational only.
func (c *Core) ValuedHoldings() ([]ValuedHolding, PortfolioSummary, error) {
	holdings, err := c.GetHoldings()
	if err != nil {
		return nil, PortfolioSummary{}, err
	}
	table, err := c.GetCostBasisTable()
	if err != nil {
		return nil, PortfolioSummary{}, err
	}
	prices, rate := c.price.fetchHomePrices(holdings)
	display := c.price.fetchDisplayPrices(holdings)

	summary := PortfolioSummary{ExchangeRate: rate}
	valued := make([]ValuedHolding, 0, len(holdings))
	for _, h := range holdings {
		item := ValuedHolding{Holding: h, DisplayCurrency: displayCurrency(h)}
		if price, ok := display.Lookup(h.Symbol); ok {
			item.PriceDisplay = floatPtr(price)
		}
		price, ok := prices.Lookup(h.Symbol)
		if !ok {
			summary.UnpricedHoldings++
			valued = append(valued, item)
			continue
		}
		summary.PricedHoldings++
		item.PriceHome = floatPtr(price)
		item.Value = HoldingValue(h, price)
		gain := table.GainLoss(h, price, rate)
		item.GainLoss = floatPtr(gain)
		item.GainLossPercent = floatPtr(round2(table.GainLossPercent(h, price, rate)))

		if h.Kind == KindCrypto {
			summary.CryptoValue += item.Value
			summary.CryptoGainLoss += gain
		} else {
			summary.StockValue += item.Value
			summary.StocksGainLoss += gain
		}
	}

	summary.TotalValue = summary.StockValue + summary.CryptoValue
	summary.GainLoss, summary.GainLossPercent = table.AggregateGainLoss(holdings, prices, rate)
	summary.GainLossPercent = round2(summary.GainLossPercent)
	return valued, summary, nil
}

// displayCurrency is the currency a holding's price is quoted in natively.
// JPX tickers are quoted in yen; everything else trades in dollars.
func displayCurrency(h Holding) string {
	if isJPXSymbol(h.Symbol) {
		return HomeCurrency
	}
	return "USD"
}
