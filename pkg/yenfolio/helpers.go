package yenfolio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

func isValidCurrency(currency string) bool {
	currency = normalizeCurrency(currency)
	for _, c := range Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

func isValidKind(kind string) bool {
	kind = normalizeKind(kind)
	for _, k := range HoldingKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func isValidEventKind(kind string) bool {
	for _, k := range CapitalEventKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// validateISODate rejects structurally broken dates. Missing data is
// tolerated everywhere in the engine; a malformed date is not, since it
// indicates a broken collaborator contract.
func validateISODate(date string) error {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}
	return nil
}

// snapshotYear extracts the calendar year from a YYYY-MM-DD date.
func snapshotYear(date string) (int, error) {
	if err := validateISODate(date); err != nil {
		return 0, err
	}
	return strconv.Atoi(date[:4])
}

func yearPrefix(year int) string {
	return fmt.Sprintf("%04d-", year)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}
