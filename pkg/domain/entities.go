// Package domain defines the persistent festival entities, value types, and
// rule evaluation primitives used by festivalcore.
package domain

import (
	"slices"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityAdmin identifies an admin console account.
	EntityAdmin EntityType = "admin"
	// EntityNews identifies a news article shown on the public site.
	EntityNews EntityType = "news"
	// EntityGoods identifies a merchandise item sold at the festival.
	EntityGoods EntityType = "goods"
	// EntityEventTicketInfo identifies a lottery ticket event.
	EntityEventTicketInfo EntityType = "event_ticket_info"
)

// NewsStatus is the publication state of a news article.
type NewsStatus string

// Canonical news publication states.
const (
	NewsStatusDraft     NewsStatus = "draft"
	NewsStatusPublished NewsStatus = "published"
)

// Valid reports whether the status is one of the canonical values.
func (s NewsStatus) Valid() bool {
	return s == NewsStatusDraft || s == NewsStatusPublished
}

// StockStatus is the coarse stock indicator displayed for goods.
type StockStatus string

// Canonical stock indicators.
const (
	StockInStock StockStatus = "in_stock"
	StockLow     StockStatus = "low"
	StockSoldOut StockStatus = "sold_out"
)

// Valid reports whether the stock status is one of the canonical values.
func (s StockStatus) Valid() bool {
	switch s {
	case StockInStock, StockLow, StockSoldOut:
		return true
	default:
		return false
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	// SeverityLog records the violation without a warning.
	SeverityLog Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetBase exposes the shared record metadata for persistence helpers.
func (b *Base) GetBase() *Base { return b }

// Admin is an admin console account.
type Admin struct {
	Base
	Name         string       `json:"name"`
	Permissions  []Permission `json:"permissions"`
	PasswordHash string       `json:"password_hash,omitempty"`
}

// Clone returns a deep copy of the admin.
func (a Admin) Clone() Admin {
	cp := a
	cp.Permissions = slices.Clone(a.Permissions)
	return cp
}

// News is an article published on the festival site.
type News struct {
	Base
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Status      NewsStatus `json:"status"`
	PublishedAt time.Time  `json:"published_at"`
}

// Clone returns a copy of the article.
func (n News) Clone() News { return n }

// Goods is a merchandise item sold at the festival.
type Goods struct {
	Base
	Name        string      `json:"name"`
	Price       int         `json:"price"`
	Stock       StockStatus `json:"stock"`
	Group       string      `json:"group"`
	Description string      `json:"description"`
}

// Clone returns a copy of the goods item.
func (g Goods) Clone() Goods { return g }

// EventTicketInfo describes a lottery ticket event: when applications open and
// close and until when winners may exchange their ticket.
type EventTicketInfo struct {
	Base
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Capacity         int       `json:"capacity"`
	ApplicationStart time.Time `json:"application_start"`
	ApplicationEnd   time.Time `json:"application_end"`
	ExchangeEnd      time.Time `json:"exchange_end"`
	Public           bool      `json:"public"`
}

// Clone returns a copy of the ticket event.
func (e EventTicketInfo) Clone() EventTicketInfo { return e }

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was removed.
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// BlockedBy reports whether a blocking violation was raised by the named rule.
func (r Result) BlockedBy(rule string) bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock && v.Rule == rule {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
