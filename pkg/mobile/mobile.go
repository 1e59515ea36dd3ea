package mobile

import (
	"encoding/json"

	"yenfolio/pkg/yenfolio"
)

// Core wraps the Yenfolio core for gomobile bindings. Every method moves
// data across the bridge as JSON strings, the only types gomobile handles
// cleanly.
type Core struct {
	core *yenfolio.Core
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	core, err := yenfolio.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// GetHoldingsJSON returns all holdings as JSON.
func (c *Core) GetHoldingsJSON() (string, error) {
	data, err := c.core.GetHoldings()
	if err != nil {
		return "", err
	}
	return marshalJSON(data)
}

// UpsertHoldingJSON creates or replaces a holding from JSON.
func (c *Core) UpsertHoldingJSON(payloadJSON string) error {
	var payload holdingPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return err
	}
	return c.core.UpsertHolding(yenfolio.Holding{
		Symbol:   payload.Symbol,
		Name:     payload.Name,
		Kind:     payload.Kind,
		Quantity: payload.Quantity,
	})
}

// GetPortfolioJSON returns valued holdings and the portfolio summary.
// Prices are fetched live, so this can take a few seconds.
func (c *Core) GetPortfolioJSON() (string, error) {
	holdings, summary, err := c.core.ValuedHoldings()
	if err != nil {
		return "", err
	}
	return marshalJSON(map[string]any{
		"holdings": holdings,
		"summary":  summary,
	})
}

// GetSnapshotHistoryJSON returns the retained daily snapshots as JSON.
func (c *Core) GetSnapshotHistoryJSON() (string, error) {
	data, err := c.core.GetSnapshotHistory()
	if err != nil {
		return "", err
	}
	return marshalJSON(data)
}

// CreateSnapshotJSON values the portfolio and records today's snapshot.
func (c *Core) CreateSnapshotJSON() (string, error) {
	snapshot, err := c.core.CreateSnapshot()
	if err != nil {
		return "", err
	}
	return marshalJSON(snapshot)
}

// GetCapitalLedgerJSON returns all capital events in insertion order.
func (c *Core) GetCapitalLedgerJSON() (string, error) {
	data, err := c.core.GetCapitalLedger()
	if err != nil {
		return "", err
	}
	return marshalJSON(data)
}

// AddCapitalEventJSON appends a capital event from JSON and returns its id.
func (c *Core) AddCapitalEventJSON(payloadJSON string) (string, error) {
	var payload capitalEventPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return "", err
	}
	id, err := c.core.AddCapitalEvent(yenfolio.CapitalEvent{
		Date:   payload.Date,
		Amount: yenfolio.NewAmount(payload.Amount),
		Kind:   payload.Kind,
		Note:   payload.Note,
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(map[string]any{"id": id})
}

// ProcessTradeJSON records a trade from JSON and returns the result.
func (c *Core) ProcessTradeJSON(payloadJSON string) (string, error) {
	var payload tradePayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return "", err
	}
	result, err := c.core.ProcessTrade(yenfolio.TradeRequest{
		Date:       payload.Date,
		Symbol:     payload.Symbol,
		Side:       payload.Side,
		Quantity:   payload.Quantity,
		Price:      payload.Price,
		AmountHome: payload.AmountHome,
		Kind:       payload.Kind,
		Note:       payload.Note,
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(result)
}

// GetAnnualPerformanceJSON returns the per-year performance table as JSON.
func (c *Core) GetAnnualPerformanceJSON() (string, error) {
	records, err := c.core.AllYearsPerformance()
	if err != nil {
		return "", err
	}
	return marshalJSON(records)
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type holdingPayload struct {
	Symbol   string  `json:"symbol"`
	Name     *string `json:"name"`
	Kind     string  `json:"kind"`
	Quantity float64 `json:"quantity"`
}

type capitalEventPayload struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Kind   string  `json:"kind"`
	Note   *string `json:"note"`
}

type tradePayload struct {
	Date       string  `json:"date"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	AmountHome float64 `json:"amount_home"`
	Kind       string  `json:"kind"`
	Note       *string `json:"note"`
}
