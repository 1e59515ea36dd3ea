package yenfolio

import (
	"sort"

	"github.com/shopspring/decimal"
)

// currentYear is stubbed in tests to pin the in-progress year.
var currentYear = CurrentYearInTokyo

var (
	decimalTwo     = decimal.NewFromInt(2)
	decimalHundred = decimal.NewFromInt(100)
)

// CalculateAnnualProfits produces one performance record per calendar year
// present in the snapshot history. Years with a database record use it;
// years without fall back to pure snapshot+ledger computation. Live figures,
// when supplied, override the in-progress year's end value and profit.
//
// Snapshots with a nil total value are discarded before start/end
// extraction; a year left with no valid snapshot is skipped entirely.
func CalculateAnnualProfits(history []PortfolioSnapshot, ledger CapitalLedger, records map[int]YearRecord, live *LiveFigures) ([]AnnualPerformanceRecord, error) {
	byYear := map[int][]PortfolioSnapshot{}
	for _, snapshot := range history {
		year, err := snapshotYear(snapshot.Date)
		if err != nil {
			return nil, err
		}
		byYear[year] = append(byYear[year], snapshot)
	}
	if len(byYear) == 0 {
		return nil, nil
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)
	// The first year of the whole series, valid snapshots or not: its
	// initial capital event is the baseline, not an addition.
	seriesFirstYear := years[0]

	var result []AnnualPerformanceRecord
	for _, year := range years {
		var valid []PortfolioSnapshot
		for _, snapshot := range byYear[year] {
			if snapshot.TotalValue != nil {
				valid = append(valid, snapshot)
			}
		}
		if len(valid) == 0 {
			continue
		}

		snapStart := *valid[0].TotalValue
		snapEnd := *valid[len(valid)-1].TotalValue
		excludeInitial := year == seriesFirstYear
		ledgerAdded := ledger.CapitalAddedInYear(year, excludeInitial)
		ledgerWithdrawn := withdrawnInYear(ledger, year)

		record, hasRecord := records[year]
		var emitted AnnualPerformanceRecord
		if hasRecord {
			emitted = recordYearPerformance(year, record, snapStart, snapEnd, live)
		} else {
			emitted = snapshotYearPerformance(year, snapStart, snapEnd, ledgerAdded, ledgerWithdrawn)
		}
		result = append(result, emitted)
	}
	return result, nil
}

// snapshotYearPerformance is the no-database fallback: start and end come
// from the year's first and last valid snapshots, capital from the ledger.
func snapshotYearPerformance(year int, start, end, capitalAdded, capitalWithdrawn Amount) AnnualPerformanceRecord {
	actualProfit := end.Sub(start.Decimal).Sub(capitalAdded.Decimal)
	// Average deployed capital, assuming deposits land mid-year on average.
	// A simple money-weighted approximation, kept verbatim for continuity
	// with previously published figures; not a true time-weighted return.
	avgCapital := start.Add(capitalAdded.Div(decimalTwo))
	returnPercent := 0.0
	if avgCapital.IsPositive() {
		returnPercent = roundedPercent(actualProfit, avgCapital)
	}
	return AnnualPerformanceRecord{
		Year:             year,
		StartValue:       start,
		EndValue:         end,
		CapitalAdded:     capitalAdded,
		CapitalWithdrawn: capitalWithdrawn,
		ActualProfit:     Amount{actualProfit},
		ReturnPercent:    returnPercent,
		Method:           MethodAutomatic,
	}
}

// recordYearPerformance merges a database record with snapshot-derived
// values. Hardcoded records are authoritative except that the in-progress
// year may be overlaid with live figures; automatic records recompute from
// their own fields.
func recordYearPerformance(year int, record YearRecord, snapStart, snapEnd Amount, live *LiveFigures) AnnualPerformanceRecord {
	start := snapStart
	if record.StartValue != nil {
		start = *record.StartValue
	}
	end := snapEnd
	if record.EndValue != nil {
		end = *record.EndValue
	}

	emitted := AnnualPerformanceRecord{
		Year:             year,
		StartValue:       start,
		CapitalAdded:     record.CapitalAdded,
		CapitalWithdrawn: record.CapitalWithdrawn,
		StocksProfit:     record.StocksProfit,
		CryptoProfit:     record.CryptoProfit,
		Notes:            record.Notes,
		Method:           record.Method,
	}

	inProgress := live != nil && year == currentYear()

	switch record.Method {
	case MethodHardcoded:
		profit := decimal.Zero
		if record.ActualProfit != nil {
			profit = record.ActualProfit.Decimal
		}
		if inProgress {
			end = live.Balance
			profit = live.HoldingsGain.Decimal
		}
		emitted.EndValue = end
		emitted.ActualProfit = Amount{profit}
		if end.IsPositive() {
			emitted.ReturnPercent = roundedPercent(profit, end.Decimal)
		}
	default: // automatic
		if record.EndValue == nil && inProgress {
			end = live.Balance
		}
		netCapital := record.CapitalAdded.Sub(record.CapitalWithdrawn.Decimal)
		profit := end.Sub(start.Decimal).Sub(netCapital)
		emitted.EndValue = end
		emitted.ActualProfit = Amount{profit}
		if record.ReturnPercent != nil {
			emitted.ReturnPercent = round2(*record.ReturnPercent)
		} else {
			avgCapital := start.Add(netCapital.Div(decimalTwo))
			if avgCapital.IsPositive() {
				emitted.ReturnPercent = roundedPercent(profit, avgCapital)
			}
		}
	}
	return emitted
}

// roundedPercent computes profit/base*100 rounded to two decimals.
// Intermediate values stay unrounded; only the emitted percent is rounded.
func roundedPercent(profit, base decimal.Decimal) float64 {
	if base.IsZero() {
		return 0
	}
	percent, _ := profit.Div(base).Mul(decimalHundred).Round(2).Float64()
	return percent
}

func withdrawnInYear(ledger CapitalLedger, year int) Amount {
	total := decimal.Zero
	for _, event := range ledger.EventsInYear(year) {
		if event.Amount.IsNegative() {
			total = total.Add(event.Amount.Decimal.Abs())
		}
	}
	return Amount{total}
}

// AnnualProfits computes per-year performance from stored snapshots, the
// capital ledger, and the annual performance database. Live figures for the
// in-progress year are optional.
func (c *Core) AnnualProfits(live *LiveFigures) ([]AnnualPerformanceRecord, error) {
	history, err := c.GetSnapshotHistory()
	if err != nil {
		return nil, err
	}
	ledger, err := c.GetCapitalLedger()
	if err != nil {
		return nil, err
	}
	records, err := c.GetAllYearRecords()
	if err != nil {
		return nil, err
	}
	return CalculateAnnualProfits(history, ledger, records, live)
}
