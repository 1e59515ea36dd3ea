package yenfolio

import (
	"database/sql"
	"fmt"
	"sort"
)

const automaticFormula = "returnPercent = (actualProfit / avgCapital) * 100, where avgCapital = startValue + (capitalAdded / 2)"

// GetYear returns the annual performance record for a year, or nil when absent.
func (c *Core) GetYear(year int) (*YearRecord, error) {
	row := c.db.QueryRow(`
		SELECT year, start_date, end_date, start_value, end_value, current_balance,
			actual_profit, return_percent, capital_added, capital_withdrawn,
			net_capital_change, stocks_profit, crypto_profit, notes,
			calculation_method, formula
		FROM annual_performance WHERE year = ?
	`, year)
	record, err := scanYearRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load year record", err)
	}
	return record, nil
}

// GetAllYearRecords loads the whole annual performance database keyed by year.
func (c *Core) GetAllYearRecords() (map[int]YearRecord, error) {
	rows, err := c.db.Query(`
		SELECT year, start_date, end_date, start_value, end_value, current_balance,
			actual_profit, return_percent, capital_added, capital_withdrawn,
			net_capital_change, stocks_profit, crypto_profit, notes,
			calculation_method, formula
		FROM annual_performance ORDER BY year
	`)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load year records", err)
	}
	defer rows.Close()

	records := map[int]YearRecord{}
	for rows.Next() {
		record, err := scanYearRecord(rows)
		if err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan year record", err)
		}
		records[record.Year] = *record
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanYearRecord(row rowScanner) (*YearRecord, error) {
	var record YearRecord
	var startValue, endValue, currentBalance, actualProfit sql.NullFloat64
	var returnPercent, stocksProfit, cryptoProfit sql.NullFloat64
	var method string
	if err := row.Scan(
		&record.Year,
		&record.StartDate,
		&record.EndDate,
		&startValue,
		&endValue,
		&currentBalance,
		&actualProfit,
		&returnPercent,
		&record.CapitalAdded,
		&record.CapitalWithdrawn,
		&record.NetCapitalChange,
		&stocksProfit,
		&cryptoProfit,
		&record.Notes,
		&method,
		&record.Formula,
	); err != nil {
		return nil, err
	}
	record.Method = CalculationMethod(method)
	record.StartValue = nullAmount(startValue)
	record.EndValue = nullAmount(endValue)
	record.CurrentBalance = nullAmount(currentBalance)
	record.ActualProfit = nullAmount(actualProfit)
	record.StocksProfit = nullAmount(stocksProfit)
	record.CryptoProfit = nullAmount(cryptoProfit)
	if returnPercent.Valid {
		record.ReturnPercent = &returnPercent.Float64
	}
	return &record, nil
}

func nullAmount(v sql.NullFloat64) *Amount {
	if !v.Valid {
		return nil
	}
	a := NewAmount(v.Float64)
	return &a
}

// AddYear creates a record for a new year, seeding its start value from the
// previous year's end value when one exists. Returns false when the year
// already exists.
func (c *Core) AddYear(year int, seed *YearUpdate) (bool, error) {
	existing, err := c.GetYear(year)
	if err != nil {
		return false, err
	}
	if existing != nil {
		c.logger.Warn("year already exists, use UpdateYear to modify", "year", year)
		return false, nil
	}

	var startValue *Amount
	prev, err := c.GetYear(year - 1)
	if err != nil {
		return false, err
	}
	if prev != nil {
		startValue = prev.EndValue
	}

	record := YearRecord{
		Year:      year,
		StartDate: fmt.Sprintf("%04d-01-01", year),
		EndDate:   fmt.Sprintf("%04d-12-31", year),
		Notes:     fmt.Sprintf("Full year tracking - Jan 1 to Dec 31, %d", year),
		Method:    MethodAutomatic,
		Formula:   automaticFormula,
	}
	record.StartValue = startValue

	if _, err := c.db.Exec(`
		INSERT INTO annual_performance (
			year, start_date, end_date, start_value, end_value, current_balance,
			actual_profit, return_percent, capital_added, capital_withdrawn,
			net_capital_change, stocks_profit, crypto_profit, notes,
			calculation_method, formula
		) VALUES (?, ?, ?, ?, NULL, NULL, NULL, NULL, 0, 0, 0, NULL, NULL, ?, ?, ?)
	`, record.Year, record.StartDate, record.EndDate, record.StartValue,
		record.Notes, string(record.Method), record.Formula); err != nil {
		return false, WrapError(ErrCodeDatabase, "insert year record", err)
	}

	if seed != nil {
		if _, err := c.UpdateYear(year, *seed); err != nil {
			return false, err
		}
	}
	c.logOperation("add_year", nil, fmt.Sprintf("year %d created", year))
	return true, nil
}

// UpdateYear merges partial fields into an existing year record. Returns
// false (and logs) when the year is absent, so callers can fall back to the
// snapshot-based computation instead of failing.
func (c *Core) UpdateYear(year int, updates YearUpdate) (bool, error) {
	existing, err := c.GetYear(year)
	if err != nil {
		return false, err
	}
	if existing == nil {
		c.logger.Error("year not found in annual performance database", "year", year)
		return false, nil
	}

	set := []string{}
	args := []any{}
	appendSet := func(column string, value any) {
		set = append(set, column+" = ?")
		args = append(args, value)
	}
	if updates.StartValue != nil {
		appendSet("start_value", *updates.StartValue)
	}
	if updates.EndValue != nil {
		appendSet("end_value", *updates.EndValue)
	}
	if updates.CurrentBalance != nil {
		appendSet("current_balance", *updates.CurrentBalance)
	}
	if updates.ActualProfit != nil {
		appendSet("actual_profit", *updates.ActualProfit)
	}
	if updates.ReturnPercent != nil {
		appendSet("return_percent", *updates.ReturnPercent)
	}
	if updates.CapitalAdded != nil {
		appendSet("capital_added", *updates.CapitalAdded)
	}
	if updates.CapitalWithdrawn != nil {
		appendSet("capital_withdrawn", *updates.CapitalWithdrawn)
	}
	if updates.StocksProfit != nil {
		appendSet("stocks_profit", *updates.StocksProfit)
	}
	if updates.CryptoProfit != nil {
		appendSet("crypto_profit", *updates.CryptoProfit)
	}
	if updates.Notes != nil {
		appendSet("notes", *updates.Notes)
	}
	if updates.Method != nil {
		appendSet("calculation_method", string(*updates.Method))
	}
	if len(set) == 0 {
		return true, nil
	}

	// net_capital_change tracks capital_added - capital_withdrawn.
	if updates.CapitalAdded != nil || updates.CapitalWithdrawn != nil {
		added := existing.CapitalAdded
		withdrawn := existing.CapitalWithdrawn
		if updates.CapitalAdded != nil {
			added = *updates.CapitalAdded
		}
		if updates.CapitalWithdrawn != nil {
			withdrawn = *updates.CapitalWithdrawn
		}
		appendSet("net_capital_change", Amount{added.Sub(withdrawn.Decimal)})
	}

	query := "UPDATE annual_performance SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE year = ?"
	args = append(args, year)

	if _, err := c.db.Exec(query, args...); err != nil {
		return false, WrapError(ErrCodeDatabase, "update year record", err)
	}
	return true, nil
}

// CalculateYearPerformance computes a single year's performance from its
// database record alone. Hardcoded records are returned verbatim; automatic
// records need both start and end values, otherwise nil is returned. That
// is an expected state for an in-progress year, not an error.
func (c *Core) CalculateYearPerformance(year int) (*AnnualPerformanceRecord, error) {
	record, err := c.GetYear(year)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return yearRecordPerformance(*record), nil
}

func yearRecordPerformance(record YearRecord) *AnnualPerformanceRecord {
	if record.Method == MethodHardcoded {
		emitted := &AnnualPerformanceRecord{
			Year:             record.Year,
			CapitalAdded:     record.CapitalAdded,
			CapitalWithdrawn: record.CapitalWithdrawn,
			StocksProfit:     record.StocksProfit,
			CryptoProfit:     record.CryptoProfit,
			Notes:            record.Notes,
			Method:           record.Method,
		}
		if record.StartValue != nil {
			emitted.StartValue = *record.StartValue
		}
		if record.EndValue != nil {
			emitted.EndValue = *record.EndValue
		}
		if record.ActualProfit != nil {
			emitted.ActualProfit = *record.ActualProfit
		}
		if record.ReturnPercent != nil {
			emitted.ReturnPercent = round2(*record.ReturnPercent)
		}
		return emitted
	}

	if record.StartValue == nil || record.EndValue == nil {
		return nil // not yet computable
	}

	start := record.StartValue.Decimal
	end := record.EndValue.Decimal
	netCapital := record.CapitalAdded.Sub(record.CapitalWithdrawn.Decimal)
	profit := end.Sub(start).Sub(netCapital)
	avgCapital := start.Add(netCapital.Div(decimalTwo))
	returnPercent := 0.0
	if avgCapital.IsPositive() {
		returnPercent = roundedPercent(profit, avgCapital)
	}
	return &AnnualPerformanceRecord{
		Year:             record.Year,
		StartValue:       *record.StartValue,
		EndValue:         *record.EndValue,
		CapitalAdded:     record.CapitalAdded,
		CapitalWithdrawn: record.CapitalWithdrawn,
		ActualProfit:     Amount{profit},
		ReturnPercent:    returnPercent,
		StocksProfit:     record.StocksProfit,
		CryptoProfit:     record.CryptoProfit,
		Notes:            record.Notes,
		Method:           record.Method,
	}
}

// AllYearsPerformance returns every computable year in ascending order.
func (c *Core) AllYearsPerformance() ([]AnnualPerformanceRecord, error) {
	records, err := c.GetAllYearRecords()
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(records))
	for year := range records {
		years = append(years, year)
	}
	sort.Ints(years)
	var result []AnnualPerformanceRecord
	for _, year := range years {
		record := records[year]
		if emitted := yearRecordPerformance(record); emitted != nil {
			result = append(result, *emitted)
		}
	}
	return result, nil
}

// FinalizeYear locks in a year's final values from its last valid snapshot
// and the capital ledger, then flips the record to hardcoded so it is never
// recomputed.
func (c *Core) FinalizeYear(year int) (*AnnualPerformanceRecord, error) {
	history, err := c.GetSnapshotHistory()
	if err != nil {
		return nil, err
	}
	var first, last *PortfolioSnapshot
	prefix := yearPrefix(year)
	firstYear := 0
	for i := range history {
		if firstYear == 0 {
			if y, err := snapshotYear(history[i].Date); err == nil {
				firstYear = y
			}
		}
		if len(history[i].Date) >= 5 && history[i].Date[:5] == prefix && history[i].TotalValue != nil {
			if first == nil {
				first = &history[i]
			}
			last = &history[i]
		}
	}
	if last == nil {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("no valid snapshots found for %d", year))
	}

	ledger, err := c.GetCapitalLedger()
	if err != nil {
		return nil, err
	}
	capitalAdded := ledger.CapitalAddedInYear(year, year == firstYear)

	record, err := c.GetYear(year)
	if err != nil {
		return nil, err
	}
	if record == nil {
		if _, err := c.AddYear(year, nil); err != nil {
			return nil, err
		}
		record, err = c.GetYear(year)
		if err != nil {
			return nil, err
		}
	}

	// The recorded start value wins; without one the year's first valid
	// snapshot is the baseline.
	end := *last.TotalValue
	start := *first.TotalValue
	if record.StartValue != nil {
		start = *record.StartValue
	}
	profit := end.Sub(start.Decimal).Sub(capitalAdded.Decimal)
	avgCapital := start.Add(capitalAdded.Div(decimalTwo))
	returnPercent := 0.0
	if avgCapital.IsPositive() {
		returnPercent = roundedPercent(profit, avgCapital)
	}

	method := MethodHardcoded
	withdrawn := withdrawnInYear(ledger, year)
	ok, err := c.UpdateYear(year, YearUpdate{
		EndValue:         amountPtr(end),
		ActualProfit:     amountPtr(Amount{profit}),
		ReturnPercent:    &returnPercent,
		CapitalAdded:     amountPtr(capitalAdded),
		CapitalWithdrawn: amountPtr(withdrawn),
		Method:           &method,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewError(ErrCodeInternal, fmt.Sprintf("year %d vanished during finalize", year))
	}
	c.logOperation("finalize_year", nil, fmt.Sprintf("year %d finalized at %s", year, last.Date))
	c.logger.Info("year finalized", "year", year, "end_value", end, "return_percent", returnPercent)
	return c.CalculateYearPerformance(year)
}

// CreateNewYear seeds the next year's record at year start.
func (c *Core) CreateNewYear(year int) (bool, error) {
	ok, err := c.AddYear(year, nil)
	if err != nil {
		return false, err
	}
	if ok {
		c.logger.Info("new year created", "year", year)
	}
	return ok, nil
}
