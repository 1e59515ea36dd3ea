package yenfolio

import "testing"

func stubCurrentYear(t *testing.T, year int) {
	t.Helper()
	orig := currentYear
	currentYear = func() int { return year }
	t.Cleanup(func() { currentYear = orig })
}

func f(v float64) *float64 { return &v }

func TestCalculateAnnualProfitsSingleYear(t *testing.T) {
	history := []PortfolioSnapshot{
		{Date: "2025-01-10", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2025-06-15", TotalValue: amountPtr(NewAmount(1050000))},
		{Date: "2025-12-20", TotalValue: amountPtr(NewAmount(1100000))},
	}

	result, err := CalculateAnnualProfits(history, nil, nil, nil)
	assertNoError(t, err, "calculate")
	if len(result) != 1 {
		t.Fatalf("expected 1 year, got %d", len(result))
	}
	record := result[0]
	if record.Year != 2025 {
		t.Errorf("year = %d", record.Year)
	}
	assertAmountEquals(t, record.StartValue, 1000000, "start from first valid snapshot")
	assertAmountEquals(t, record.EndValue, 1100000, "end from last valid snapshot")
	assertAmountEquals(t, record.ActualProfit, 100000, "profit")
	assertFloatEquals(t, record.ReturnPercent, 10.00, "return percent")
	if record.Method != MethodAutomatic {
		t.Errorf("method = %s", record.Method)
	}
}

func TestCalculateAnnualProfitsDepositIsNotProfit(t *testing.T) {
	history := []PortfolioSnapshot{
		{Date: "2024-01-05", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2024-12-28", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2025-01-03", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2025-12-30", TotalValue: amountPtr(NewAmount(1300000))},
	}
	ledger := CapitalLedger{
		{Date: "2024-01-05", Amount: NewAmount(1000000), Kind: EventInitial},
		{Date: "2025-06-01", Amount: NewAmount(300000), Kind: EventDeposit},
	}

	result, err := CalculateAnnualProfits(history, ledger, nil, nil)
	assertNoError(t, err, "calculate")
	if len(result) != 2 {
		t.Fatalf("expected 2 years, got %d", len(result))
	}

	// The 300k deposit fully explains the value growth: zero profit.
	year2025 := result[1]
	assertAmountEquals(t, year2025.CapitalAdded, 300000, "capital added")
	assertAmountEquals(t, year2025.ActualProfit, 0, "deposit is not profit")
	assertFloatEquals(t, year2025.ReturnPercent, 0.00, "zero return")
}

func TestCalculateAnnualProfitsFirstYearExcludesInitial(t *testing.T) {
	history := []PortfolioSnapshot{
		{Date: "2024-01-05", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2024-12-28", TotalValue: amountPtr(NewAmount(1080000))},
	}
	ledger := CapitalLedger{
		{Date: "2024-01-05", Amount: NewAmount(1000000), Kind: EventInitial},
	}

	result, err := CalculateAnnualProfits(history, ledger, nil, nil)
	assertNoError(t, err, "calculate")
	if len(result) != 1 {
		t.Fatalf("expected 1 year, got %d", len(result))
	}
	// Counting the initial funding as added capital would report a loss.
	assertAmountEquals(t, result[0].CapitalAdded, 0, "initial excluded in first year")
	assertAmountEquals(t, result[0].ActualProfit, 80000, "profit against baseline")
	assertFloatEquals(t, result[0].ReturnPercent, 8.00, "return percent")
}

func TestCalculateAnnualProfitsSkipsAllNullYear(t *testing.T) {
	history := []PortfolioSnapshot{
		{Date: "2024-03-01", TotalValue: nil},
		{Date: "2024-09-01", TotalValue: nil},
		{Date: "2025-01-10", TotalValue: amountPtr(NewAmount(500000))},
		{Date: "2025-12-10", TotalValue: amountPtr(NewAmount(550000))},
	}

	result, err := CalculateAnnualProfits(history, nil, nil, nil)
	assertNoError(t, err, "calculate")
	if len(result) != 1 {
		t.Fatalf("expected only 2025, got %d years", len(result))
	}
	if result[0].Year != 2025 {
		t.Errorf("year = %d", result[0].Year)
	}
	// 2024 still counts as the series' first year for the initial-event
	// exclusion, even though it emits no record.
}

func TestCalculateAnnualProfitsMalformedDate(t *testing.T) {
	history := []PortfolioSnapshot{
		{Date: "not-a-date", TotalValue: amountPtr(NewAmount(1))},
	}
	_, err := CalculateAnnualProfits(history, nil, nil, nil)
	assertError(t, err, "malformed snapshot date")
}

func TestCalculateAnnualProfitsHardcodedRecord(t *testing.T) {
	stubCurrentYear(t, 2026)

	history := []PortfolioSnapshot{
		{Date: "2024-02-01", TotalValue: amountPtr(NewAmount(9000000))},
		{Date: "2024-12-30", TotalValue: amountPtr(NewAmount(9999999))},
	}
	records := map[int]YearRecord{
		2024: {
			Year:         2024,
			EndValue:     amountPtr(NewAmount(9057170)),
			ActualProfit: amountPtr(NewAmount(-86398)),
			Method:       MethodHardcoded,
			Notes:        "audited figures",
		},
	}

	result, err := CalculateAnnualProfits(history, nil, records, nil)
	assertNoError(t, err, "calculate")
	if len(result) != 1 {
		t.Fatalf("expected 1 year, got %d", len(result))
	}
	record := result[0]
	// Hardcoded values win over the snapshot-derived ones.
	assertAmountEquals(t, record.EndValue, 9057170, "hardcoded end value")
	assertAmountEquals(t, record.ActualProfit, -86398, "hardcoded profit")
	assertFloatEquals(t, record.ReturnPercent, -0.95, "percent from hardcoded values")
	if record.Notes != "audited figures" {
		t.Errorf("notes = %q", record.Notes)
	}
}

func TestCalculateAnnualProfitsLiveOverride(t *testing.T) {
	stubCurrentYear(t, 2025)

	history := []PortfolioSnapshot{
		{Date: "2025-01-10", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2025-08-01", TotalValue: amountPtr(NewAmount(1020000))},
	}
	records := map[int]YearRecord{
		2025: {Year: 2025, Method: MethodHardcoded},
	}
	live := &LiveFigures{
		HoldingsGain: NewAmount(75000),
		Balance:      NewAmount(1075000),
	}

	result, err := CalculateAnnualProfits(history, nil, records, live)
	assertNoError(t, err, "calculate")
	record := result[0]
	assertAmountEquals(t, record.EndValue, 1075000, "live balance overrides end")
	assertAmountEquals(t, record.ActualProfit, 75000, "live gain overrides profit")
	assertFloatEquals(t, record.ReturnPercent, 6.98, "percent from live figures")
}

func TestCalculateAnnualProfitsLiveIgnoredForPastYear(t *testing.T) {
	stubCurrentYear(t, 2026)

	history := []PortfolioSnapshot{
		{Date: "2025-01-10", TotalValue: amountPtr(NewAmount(1000000))},
		{Date: "2025-12-20", TotalValue: amountPtr(NewAmount(1100000))},
	}
	records := map[int]YearRecord{
		2025: {
			Year:         2025,
			EndValue:     amountPtr(NewAmount(1100000)),
			ActualProfit: amountPtr(NewAmount(100000)),
			Method:       MethodHardcoded,
		},
	}
	live := &LiveFigures{HoldingsGain: NewAmount(1), Balance: NewAmount(1)}

	result, err := CalculateAnnualProfits(history, nil, records, live)
	assertNoError(t, err, "calculate")
	assertAmountEquals(t, result[0].EndValue, 1100000, "live ignored for closed year")
	assertAmountEquals(t, result[0].ActualProfit, 100000, "recorded profit kept")
}

func TestRoundedPercent(t *testing.T) {
	assertFloatEquals(t, roundedPercent(NewAmount(100000).Decimal, NewAmount(1000000).Decimal), 10.00, "ten percent")
	assertFloatEquals(t, roundedPercent(NewAmount(1).Decimal, NewAmount(3).Decimal), 33.33, "rounded to 2dp")
	assertFloatEquals(t, roundedPercent(NewAmount(5).Decimal, NewAmount(0).Decimal), 0, "zero base")
}
