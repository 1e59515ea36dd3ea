package yenfolio

import (
	"os"
	"path/filepath"
	"testing"
)

// setupTestDB creates a temporary database for testing and returns a Core
// instance. The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "yenfolio-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// testHolding creates a holding row for testing.
func testHolding(t *testing.T, core *Core, symbol, kind string, quantity float64) {
	t.Helper()
	if err := core.UpsertHolding(Holding{Symbol: symbol, Kind: kind, Quantity: quantity}); err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
}

// testSnapshot persists a snapshot with the given totals. Nil pointers stay
// NULL in the database.
func testSnapshot(t *testing.T, core *Core, date string, stock, crypto, total *float64) {
	t.Helper()
	snapshot := PortfolioSnapshot{Date: date, Timestamp: date + "T15:00:00+09:00", ExchangeRate: 150}
	if stock != nil {
		snapshot.StockValue = amountPtr(NewAmount(*stock))
	}
	if crypto != nil {
		snapshot.CryptoValue = amountPtr(NewAmount(*crypto))
	}
	if total != nil {
		snapshot.TotalValue = amountPtr(NewAmount(*total))
	}
	if err := core.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("failed to save test snapshot: %v", err)
	}
}

// testCapitalEvent appends a ledger event for testing.
func testCapitalEvent(t *testing.T, core *Core, date string, amount float64, kind string) {
	t.Helper()
	if _, err := core.AddCapitalEvent(CapitalEvent{Date: date, Amount: NewAmount(amount), Kind: kind}); err != nil {
		t.Fatalf("failed to add test capital event: %v", err)
	}
}

// floatEquals checks if two floats are approximately equal.
func floatEquals(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// assertFloatEquals fails the test if the floats are not approximately equal.
func assertFloatEquals(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if !floatEquals(got, want, 0.001) {
		t.Errorf("%s: got %.4f, want %.4f", msg, got, want)
	}
}

// assertAmountEquals fails the test if the Amount is not approximately the
// expected float value.
func assertAmountEquals(t *testing.T, got Amount, want float64, msg string) {
	t.Helper()
	f, _ := got.Float64()
	if !floatEquals(f, want, 0.001) {
		t.Errorf("%s: got %.4f, want %.4f", msg, f, want)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}
