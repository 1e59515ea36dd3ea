package yenfolio

import "testing"

func TestAddYearSeedsFromPreviousYear(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	ok, err := core.AddYear(2024, &YearUpdate{
		EndValue: amountPtr(NewAmount(8500000)),
	})
	assertNoError(t, err, "add 2024")
	if !ok {
		t.Fatal("expected 2024 to be created")
	}

	ok, err = core.AddYear(2025, nil)
	assertNoError(t, err, "add 2025")
	if !ok {
		t.Fatal("expected 2025 to be created")
	}

	record, err := core.GetYear(2025)
	assertNoError(t, err, "get 2025")
	if record == nil {
		t.Fatal("2025 record missing")
	}
	if record.StartValue == nil {
		t.Fatal("start value not seeded")
	}
	assertAmountEquals(t, *record.StartValue, 8500000, "seeded from previous end value")
	if record.StartDate != "2025-01-01" || record.EndDate != "2025-12-31" {
		t.Errorf("dates = %s .. %s", record.StartDate, record.EndDate)
	}
	if record.Method != MethodAutomatic {
		t.Errorf("method = %s", record.Method)
	}
}

func TestAddYearDuplicate(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	ok, err := core.AddYear(2025, nil)
	assertNoError(t, err, "first add")
	if !ok {
		t.Fatal("expected creation")
	}

	// Duplicate is a warning, not an error.
	ok, err = core.AddYear(2025, nil)
	assertNoError(t, err, "duplicate add")
	if ok {
		t.Error("expected duplicate add to report false")
	}
}

func TestUpdateYearMissing(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	ok, err := core.UpdateYear(1999, YearUpdate{Notes: stringPtr("nope")})
	assertNoError(t, err, "update missing year")
	if ok {
		t.Error("expected update of missing year to report false")
	}
}

func TestUpdateYearMaintainsNetCapital(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.AddYear(2025, nil)
	assertNoError(t, err, "add year")

	ok, err := core.UpdateYear(2025, YearUpdate{
		CapitalAdded:     amountPtr(NewAmount(500000)),
		CapitalWithdrawn: amountPtr(NewAmount(120000)),
	})
	assertNoError(t, err, "update capital")
	if !ok {
		t.Fatal("expected update to succeed")
	}

	record, err := core.GetYear(2025)
	assertNoError(t, err, "get year")
	assertAmountEquals(t, record.CapitalAdded, 500000, "capital added")
	assertAmountEquals(t, record.CapitalWithdrawn, 120000, "capital withdrawn")
	assertAmountEquals(t, record.NetCapitalChange, 380000, "net capital derived")
}

func TestCalculateYearPerformanceNotYetComputable(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.AddYear(2025, nil)
	assertNoError(t, err, "add year")

	// Automatic record with no end value: nil result, no error.
	result, err := core.CalculateYearPerformance(2025)
	assertNoError(t, err, "calculate")
	if result != nil {
		t.Errorf("expected nil for in-progress year, got %+v", result)
	}
}

func TestCalculateYearPerformanceAutomatic(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.AddYear(2025, &YearUpdate{
		StartValue:   amountPtr(NewAmount(1000000)),
		EndValue:     amountPtr(NewAmount(1300000)),
		CapitalAdded: amountPtr(NewAmount(300000)),
	})
	assertNoError(t, err, "add year")

	result, err := core.CalculateYearPerformance(2025)
	assertNoError(t, err, "calculate")
	if result == nil {
		t.Fatal("expected result")
	}
	assertAmountEquals(t, result.ActualProfit, 0, "deposit not counted as profit")
	assertFloatEquals(t, result.ReturnPercent, 0, "zero return")
}

func TestCalculateYearPerformanceHardcoded(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	method := MethodHardcoded
	_, err := core.AddYear(2024, &YearUpdate{
		StartValue:    amountPtr(NewAmount(9143568)),
		EndValue:      amountPtr(NewAmount(9057170)),
		ActualProfit:  amountPtr(NewAmount(-86398)),
		ReturnPercent: f(-0.95),
		Method:        &method,
	})
	assertNoError(t, err, "add year")

	result, err := core.CalculateYearPerformance(2024)
	assertNoError(t, err, "calculate")
	if result == nil {
		t.Fatal("expected result")
	}
	// Hardcoded figures come back verbatim, never recomputed.
	assertAmountEquals(t, result.ActualProfit, -86398, "hardcoded profit")
	assertFloatEquals(t, result.ReturnPercent, -0.95, "hardcoded percent")
	if result.Method != MethodHardcoded {
		t.Errorf("method = %s", result.Method)
	}
}

func TestAllYearsPerformanceOrderedAndFiltered(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.AddYear(2025, &YearUpdate{
		StartValue: amountPtr(NewAmount(2000000)),
		EndValue:   amountPtr(NewAmount(2100000)),
	})
	assertNoError(t, err, "add 2025")
	_, err = core.AddYear(2023, &YearUpdate{
		StartValue: amountPtr(NewAmount(1000000)),
		EndValue:   amountPtr(NewAmount(1500000)),
	})
	assertNoError(t, err, "add 2023")
	// 2026 has no end value yet and must be filtered out.
	_, err = core.AddYear(2026, nil)
	assertNoError(t, err, "add 2026")

	result, err := core.AllYearsPerformance()
	assertNoError(t, err, "all years")
	if len(result) != 2 {
		t.Fatalf("expected 2 computable years, got %d", len(result))
	}
	if result[0].Year != 2023 || result[1].Year != 2025 {
		t.Errorf("years = %d, %d", result[0].Year, result[1].Year)
	}
}

func TestFinalizeYear(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	testCapitalEvent(t, core, "2024-01-05", 1000000, EventInitial)
	testSnapshot(t, core, "2024-01-05", f(700000), f(300000), f(1000000))
	testSnapshot(t, core, "2024-12-28", f(750000), f(330000), f(1080000))
	// A trailing null snapshot must not become the year end.
	testSnapshot(t, core, "2024-12-30", nil, nil, nil)

	result, err := core.FinalizeYear(2024)
	assertNoError(t, err, "finalize")
	if result == nil {
		t.Fatal("expected result")
	}
	assertAmountEquals(t, result.EndValue, 1080000, "end from last valid snapshot")
	assertAmountEquals(t, result.CapitalAdded, 0, "initial excluded in first year")
	assertAmountEquals(t, result.ActualProfit, 80000, "profit")
	assertFloatEquals(t, result.ReturnPercent, 8.00, "return percent")
	if result.Method != MethodHardcoded {
		t.Errorf("finalized year should be hardcoded, got %s", result.Method)
	}
}

func TestFinalizeYearNoSnapshots(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.FinalizeYear(2024)
	assertError(t, err, "no snapshots to finalize")
	if !IsErrorCode(err, ErrCodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
