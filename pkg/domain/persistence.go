package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	FindAdmin(id string) (Admin, bool)
	CountAdmins(match func(Admin) bool) int
	CreateAdmin(Admin) (Admin, error)
	UpdateAdmin(id string, mutator func(*Admin) error) (Admin, error)
	DeleteAdmin(id string) error
	FindNews(id string) (News, bool)
	CountNews(match func(News) bool) int
	CreateNews(News) (News, error)
	UpdateNews(id string, mutator func(*News) error) (News, error)
	DeleteNews(id string) error
	FindGoods(id string) (Goods, bool)
	CountGoods(match func(Goods) bool) int
	CreateGoods(Goods) (Goods, error)
	UpdateGoods(id string, mutator func(*Goods) error) (Goods, error)
	DeleteGoods(id string) error
	FindEventTicketInfo(id string) (EventTicketInfo, bool)
	CountEventTicketInfos(match func(EventTicketInfo) bool) int
	CreateEventTicketInfo(EventTicketInfo) (EventTicketInfo, error)
	UpdateEventTicketInfo(id string, mutator func(*EventTicketInfo) error) (EventTicketInfo, error)
	DeleteEventTicketInfo(id string) error
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListAdmins() []Admin
	ListNews() []News
	ListGoods() []Goods
	ListEventTicketInfos() []EventTicketInfo
	FindAdmin(id string) (Admin, bool)
	FindNews(id string) (News, bool)
	FindGoods(id string) (Goods, bool)
	FindEventTicketInfo(id string) (EventTicketInfo, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
