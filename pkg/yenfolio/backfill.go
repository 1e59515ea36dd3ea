package yenfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EstimateMissingCryptoValues fills gaps in the crypto column of the
// snapshot history by linear interpolation between the nearest surrounding
// days with known values. A trailing gap carries the last known value
// forward; a leading gap (nothing known before it) stays nil. The total is
// recomputed only when the stock side is known too. Returns the patched
// history and the number of entries changed; the input is not modified.
func EstimateMissingCryptoValues(history []PortfolioSnapshot) ([]PortfolioSnapshot, int) {
	patched := make([]PortfolioSnapshot, len(history))
	copy(patched, history)

	updated := 0
	for i := range patched {
		if patched[i].CryptoValue != nil {
			continue
		}

		beforeIdx, afterIdx := -1, -1
		for j := i - 1; j >= 0; j-- {
			if patched[j].CryptoValue != nil {
				beforeIdx = j
				break
			}
		}
		for j := i + 1; j < len(patched); j++ {
			if patched[j].CryptoValue != nil {
				afterIdx = j
				break
			}
		}

		var estimated *Amount
		switch {
		case beforeIdx >= 0 && afterIdx >= 0:
			before := patched[beforeIdx].CryptoValue.Decimal
			after := patched[afterIdx].CryptoValue.Decimal
			ratio := decimal.NewFromInt(int64(i - beforeIdx)).
				Div(decimal.NewFromInt(int64(afterIdx - beforeIdx)))
			value := before.Add(after.Sub(before).Mul(ratio)).Round(0)
			estimated = amountPtr(Amount{value})
		case beforeIdx >= 0:
			estimated = amountPtr(Amount{patched[beforeIdx].CryptoValue.Round(0)})
		default:
			continue
		}

		patched[i].CryptoValue = estimated
		if patched[i].StockValue != nil {
			total := patched[i].StockValue.Add(estimated.Decimal)
			patched[i].TotalValue = amountPtr(Amount{total})
		}
		updated++
	}
	return patched, updated
}

// BackfillCryptoValues patches the stored history in place and reports how
// many snapshots were estimated.
func (c *Core) BackfillCryptoValues() (int, error) {
	history, err := c.GetSnapshotHistory()
	if err != nil {
		return 0, err
	}
	patched, updated := EstimateMissingCryptoValues(history)
	if updated == 0 {
		return 0, nil
	}
	for i := range patched {
		if history[i].CryptoValue != nil || patched[i].CryptoValue == nil {
			continue
		}
		if err := c.SaveSnapshot(patched[i]); err != nil {
			return updated, err
		}
	}
	c.logOperation("backfill_crypto", nil, fmt.Sprintf("%d snapshots estimated", updated))
	c.logger.Info("crypto values backfilled", "updated", updated)
	return updated, nil
}
