package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid marks validation failures so callers can tell them apart from
// infrastructure errors.
var ErrInvalid = errors.New("invalid entity")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks the admin's own field constraints.
func (a Admin) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalidf("admin name is required")
	}
	for _, p := range a.Permissions {
		if _, err := ParsePermission(string(p)); err != nil {
			return invalidf("admin %q: %v", a.Name, err)
		}
	}
	return nil
}

// Validate checks the article's own field constraints.
func (n News) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return invalidf("news title is required")
	}
	if !n.Status.Valid() {
		return invalidf("news status %q", n.Status)
	}
	return nil
}

// Validate checks the goods item's own field constraints.
func (g Goods) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalidf("goods name is required")
	}
	if g.Price < 0 {
		return invalidf("goods %q has negative price %d", g.Name, g.Price)
	}
	if !g.Stock.Valid() {
		return invalidf("goods %q stock status %q", g.Name, g.Stock)
	}
	return nil
}

// Validate checks the ticket event's schedule: application start, application
// end and exchange end must be strictly increasing and carry whole minutes.
func (e EventTicketInfo) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return invalidf("ticket event name is required")
	}
	if e.Capacity < 0 {
		return invalidf("ticket event %q has negative capacity %d", e.Name, e.Capacity)
	}
	dates := []struct {
		label string
		at    time.Time
	}{
		{"application_start", e.ApplicationStart},
		{"application_end", e.ApplicationEnd},
		{"exchange_end", e.ExchangeEnd},
	}
	for _, d := range dates {
		if d.at.IsZero() {
			return invalidf("ticket event %q: %s is required", e.Name, d.label)
		}
		if d.at.Second() != 0 || d.at.Nanosecond() != 0 {
			return invalidf("ticket event %q: %s must not carry seconds", e.Name, d.label)
		}
	}
	if !e.ApplicationStart.Before(e.ApplicationEnd) {
		return invalidf("ticket event %q: application_start must precede application_end", e.Name)
	}
	if !e.ApplicationEnd.Before(e.ExchangeEnd) {
		return invalidf("ticket event %q: application_end must precede exchange_end", e.Name)
	}
	return nil
}
