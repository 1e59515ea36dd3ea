package yenfolio

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// CapitalLedger is the chronological list of capital events. It is
// append-only: events are never removed or reordered, so ledger order is
// insertion order.
type CapitalLedger []CapitalEvent

// CapitalAsOf sums all event amounts dated on or before the given day,
// i.e. the cumulative capital committed as of that date.
func (l CapitalLedger) CapitalAsOf(date string) Amount {
	total := decimal.Zero
	for _, event := range l {
		if event.Date <= date {
			total = total.Add(event.Amount.Decimal)
		}
	}
	return Amount{total}
}

// EventsInYear returns all events dated within a calendar year, in ledger order.
func (l CapitalLedger) EventsInYear(year int) []CapitalEvent {
	prefix := yearPrefix(year)
	var events []CapitalEvent
	for _, event := range l {
		if strings.HasPrefix(event.Date, prefix) {
			events = append(events, event)
		}
	}
	return events
}

// CapitalAddedInYear sums event amounts for a calendar year. With
// excludeInitial set, events tagged initial are skipped: in the portfolio's
// first year the opening balance is the baseline itself, not added capital.
func (l CapitalLedger) CapitalAddedInYear(year int, excludeInitial bool) Amount {
	total := decimal.Zero
	for _, event := range l.EventsInYear(year) {
		if excludeInitial && event.Kind == EventInitial {
			continue
		}
		total = total.Add(event.Amount.Decimal)
	}
	return Amount{total}
}

// AddCapitalEvent appends an event to the ledger.
func (c *Core) AddCapitalEvent(event CapitalEvent) (int64, error) {
	if err := validateISODate(event.Date); err != nil {
		return 0, err
	}
	if event.Kind == "" {
		event.Kind = EventDeposit
	}
	if !isValidEventKind(event.Kind) {
		return 0, NewError(ErrCodeInvalidInput, "invalid capital event kind: "+event.Kind)
	}
	result, err := c.db.Exec(`
		INSERT INTO capital_events (event_date, amount, kind, note)
		VALUES (?, ?, ?, ?)
	`, event.Date, event.Amount, event.Kind, event.Note)
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "insert capital event", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "capital event id", err)
	}
	c.logger.Info("capital event added", "date", event.Date, "kind", event.Kind, "amount", event.Amount)
	return id, nil
}

// GetCapitalLedger loads the full ledger in insertion order.
func (c *Core) GetCapitalLedger() (CapitalLedger, error) {
	rows, err := c.db.Query("SELECT id, event_date, amount, kind, note FROM capital_events ORDER BY id")
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load capital ledger", err)
	}
	defer rows.Close()

	var ledger CapitalLedger
	for rows.Next() {
		var event CapitalEvent
		var note sql.NullString
		if err := rows.Scan(&event.ID, &event.Date, &event.Amount, &event.Kind, &note); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan capital event", err)
		}
		if note.Valid {
			event.Note = &note.String
		}
		ledger = append(ledger, event)
	}
	return ledger, rows.Err()
}
