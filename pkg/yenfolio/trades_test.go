package yenfolio

import "testing"

func TestProcessTradeBuyCreatesHolding(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	result, err := core.ProcessTrade(TradeRequest{
		Date:       "2025-06-01",
		Symbol:     "nvda",
		Side:       SideBuy,
		Quantity:   10,
		Price:      150,
		AmountHome: 225000,
	})
	assertNoError(t, err, "buy")
	if result.TradeID <= 0 || result.CapitalEventID <= 0 {
		t.Errorf("ids not assigned: %+v", result)
	}
	assertFloatEquals(t, result.NewQuantity, 10, "new quantity")

	holdings, err := core.GetHoldings()
	assertNoError(t, err, "holdings")
	if len(holdings) != 1 || holdings[0].Symbol != "NVDA" {
		t.Fatalf("holding not created: %+v", holdings)
	}

	// The trade funds the portfolio: a positive ledger event.
	ledger, err := core.GetCapitalLedger()
	assertNoError(t, err, "ledger")
	if len(ledger) != 1 {
		t.Fatalf("expected 1 capital event, got %d", len(ledger))
	}
	if ledger[0].Kind != EventTrade {
		t.Errorf("event kind = %s", ledger[0].Kind)
	}
	assertAmountEquals(t, ledger[0].Amount, 225000, "capital moved")

	// First buy seeds the cost basis at the trade price.
	table, err := core.GetCostBasisTable()
	assertNoError(t, err, "cost basis")
	entry, ok := table["NVDA"]
	if !ok {
		t.Fatal("cost basis not seeded")
	}
	assertFloatEquals(t, entry.AvgCost, 150, "seeded at trade price")
	if entry.Currency != "USD" {
		t.Errorf("currency = %s", entry.Currency)
	}
}

func TestProcessTradeBuyReweightsCostBasis(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.ProcessTrade(TradeRequest{
		Date: "2025-06-01", Symbol: "NVDA", Side: SideBuy,
		Quantity: 10, Price: 100, AmountHome: 150000,
	})
	assertNoError(t, err, "first buy")
	_, err = core.ProcessTrade(TradeRequest{
		Date: "2025-07-01", Symbol: "NVDA", Side: SideBuy,
		Quantity: 10, Price: 200, AmountHome: 300000,
	})
	assertNoError(t, err, "second buy")

	table, err := core.GetCostBasisTable()
	assertNoError(t, err, "cost basis")
	// (100*10 + 200*10) / 20
	assertFloatEquals(t, table["NVDA"].AvgCost, 150, "weighted average")
}

func TestProcessTradeSellKeepsCostBasis(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.ProcessTrade(TradeRequest{
		Date: "2025-06-01", Symbol: "NVDA", Side: SideBuy,
		Quantity: 10, Price: 100, AmountHome: 150000,
	})
	assertNoError(t, err, "buy")

	result, err := core.ProcessTrade(TradeRequest{
		Date: "2025-08-01", Symbol: "NVDA", Side: SideSell,
		Quantity: 4, Price: 120, AmountHome: -72000,
	})
	assertNoError(t, err, "sell")
	assertFloatEquals(t, result.NewQuantity, 6, "quantity reduced")

	// Average-cost method: the per-unit cost of the remainder is unchanged.
	table, err := core.GetCostBasisTable()
	assertNoError(t, err, "cost basis")
	assertFloatEquals(t, table["NVDA"].AvgCost, 100, "cost basis unchanged by sell")

	ledger, err := core.GetCapitalLedger()
	assertNoError(t, err, "ledger")
	assertAmountEquals(t, ledger[1].Amount, -72000, "sell withdraws capital")
}

func TestProcessTradeSellToZeroRemovesHolding(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.ProcessTrade(TradeRequest{
		Date: "2025-06-01", Symbol: "NVDA", Side: SideBuy,
		Quantity: 10, Price: 100, AmountHome: 150000,
	})
	assertNoError(t, err, "buy")

	result, err := core.ProcessTrade(TradeRequest{
		Date: "2025-08-01", Symbol: "NVDA", Side: SideSell,
		Quantity: 10, Price: 120, AmountHome: -180000,
	})
	assertNoError(t, err, "sell all")
	if !result.Removed {
		t.Error("expected position removal")
	}

	holdings, err := core.GetHoldings()
	assertNoError(t, err, "holdings")
	if len(holdings) != 0 {
		t.Errorf("holding not removed: %+v", holdings)
	}
}

func TestProcessTradeValidation(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.ProcessTrade(TradeRequest{Date: "2025-06-01", Symbol: "NVDA", Side: "short", Quantity: 1, Price: 1})
	assertError(t, err, "bad side")

	_, err = core.ProcessTrade(TradeRequest{Date: "2025-06-01", Symbol: "NVDA", Side: SideBuy, Quantity: 0, Price: 1})
	assertError(t, err, "zero quantity")

	_, err = core.ProcessTrade(TradeRequest{Date: "2025-06-01", Symbol: "NVDA", Side: SideSell, Quantity: 1, Price: 1})
	assertError(t, err, "sell unknown holding")
	if !IsErrorCode(err, ErrCodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestProcessTradeOversellRollsBack(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := core.ProcessTrade(TradeRequest{
		Date: "2025-06-01", Symbol: "NVDA", Side: SideBuy,
		Quantity: 5, Price: 100, AmountHome: 75000,
	})
	assertNoError(t, err, "buy")

	_, err = core.ProcessTrade(TradeRequest{
		Date: "2025-08-01", Symbol: "NVDA", Side: SideSell,
		Quantity: 10, Price: 100, AmountHome: -150000,
	})
	assertError(t, err, "oversell")
	if !IsErrorCode(err, ErrCodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	// The rejected trade must leave nothing behind: no trade row, no
	// ledger event, quantity untouched.
	trades, err := core.GetTrades(10)
	assertNoError(t, err, "trades")
	if len(trades) != 1 {
		t.Errorf("expected only the buy, got %d trades", len(trades))
	}
	ledger, err := core.GetCapitalLedger()
	assertNoError(t, err, "ledger")
	if len(ledger) != 1 {
		t.Errorf("expected only the buy event, got %d", len(ledger))
	}
	holdings, err := core.GetHoldings()
	assertNoError(t, err, "holdings")
	assertFloatEquals(t, holdings[0].Quantity, 5, "quantity untouched")
}

func TestGetTradesNewestFirst(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()

	for _, date := range []string{"2025-06-01", "2025-06-03", "2025-06-02"} {
		_, err := core.ProcessTrade(TradeRequest{
			Date: date, Symbol: "NVDA", Side: SideBuy,
			Quantity: 1, Price: 100, AmountHome: 15000,
		})
		assertNoError(t, err, "buy "+date)
	}

	trades, err := core.GetTrades(10)
	assertNoError(t, err, "trades")
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}
	if trades[0].Date != "2025-06-03" || trades[2].Date != "2025-06-01" {
		t.Errorf("trades not newest first: %s, %s, %s", trades[0].Date, trades[1].Date, trades[2].Date)
	}
}
