package yenfolio

import "math"

// PriceMap maps a symbol to a unit price. A missing entry means the price
// is unknown, which is distinct from a genuine zero price.
type PriceMap map[string]float64

// Lookup returns the price for a symbol and whether one is known.
func (m PriceMap) Lookup(symbol string) (float64, bool) {
	price, ok := m[symbol]
	return price, ok
}

// Value returns the price for a symbol, treating an unknown price as zero.
// This is the availability-over-correctness policy the display path uses:
// a holding with no price contributes nothing to totals instead of failing
// the whole valuation. Callers that need to tell "unknown" from "zero"
// must use Lookup.
func (m PriceMap) Value(symbol string) float64 {
	return m[symbol]
}

// HoldingValue computes the position value of a holding at a unit price,
// in whatever currency the price is denominated. Upstream price-adapter
// failures are common and expected, so a negative or NaN price is treated
// as zero value rather than an error.
func HoldingValue(h Holding, price float64) float64 {
	if price <= 0 || math.IsNaN(price) {
		return 0
	}
	return h.Quantity * price
}

// avgCostHome resolves the average cost per unit for a symbol in the home
// currency. A symbol absent from the table falls back to the current price
// as its own cost basis, which deliberately reports zero gain/loss rather
// than erroring on a data-entry omission.
func (t CostBasisTable) avgCostHome(symbol string, currentPrice, exchangeRate float64) float64 {
	entry, ok := t[symbol]
	if !ok {
		return currentPrice
	}
	if entry.Currency == HomeCurrency {
		return entry.AvgCost
	}
	return entry.AvgCost * exchangeRate
}

// GainLoss computes the unrealized gain/loss of a holding against its
// average cost basis. currentPrice must already be in the home currency;
// exchangeRate converts foreign-currency cost bases into it.
func (t CostBasisTable) GainLoss(h Holding, currentPrice, exchangeRate float64) float64 {
	avgCost := t.avgCostHome(h.Symbol, currentPrice, exchangeRate)
	currentValue := HoldingValue(h, currentPrice)
	originalValue := h.Quantity * avgCost
	return currentValue - originalValue
}

// GainLossPercent computes the unrealized gain/loss percentage. A zero
// original value yields 0, never NaN or infinity.
func (t CostBasisTable) GainLossPercent(h Holding, currentPrice, exchangeRate float64) float64 {
	avgCost := t.avgCostHome(h.Symbol, currentPrice, exchangeRate)
	originalValue := h.Quantity * avgCost
	if originalValue <= 0 {
		return 0
	}
	gainLoss := t.GainLoss(h, currentPrice, exchangeRate)
	return gainLoss / originalValue * 100
}

// AggregateGainLoss sums gain/loss across holdings and recomputes the
// aggregate percentage from the summed values. Averaging the per-holding
// percentages would weight a ¥1 position the same as a ¥1M one.
// Holdings with an unknown price contribute zero.
func (t CostBasisTable) AggregateGainLoss(holdings []Holding, prices PriceMap, exchangeRate float64) (float64, float64) {
	var totalGain, totalOriginal float64
	for _, h := range holdings {
		price, ok := prices.Lookup(h.Symbol)
		if !ok {
			continue
		}
		avgCost := t.avgCostHome(h.Symbol, price, exchangeRate)
		totalGain += t.GainLoss(h, price, exchangeRate)
		totalOriginal += h.Quantity * avgCost
	}
	if totalOriginal <= 0 {
		return totalGain, 0
	}
	return totalGain, totalGain / totalOriginal * 100
}
