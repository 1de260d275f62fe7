package core

import (
	"sync"
	"testing"
	"time"

	"festivalcore/internal/infra/persistence/memory"
	"festivalcore/pkg/domain"
)

var (
	rootCaller  = Caller{ID: "root", Permissions: domain.AllPermissions()}
	stockCaller = Caller{ID: "stock-clerk", Permissions: Permissions{domain.PermissionGoodsStock}}
	newsCaller  = Caller{ID: "editor", Permissions: Permissions{domain.PermissionNews}}
	nobody      = Caller{ID: "visitor"}
)

// tickingClock advances one second per call so creation order is stable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine(), memory.WithClock(tickingClock()))
	return NewService(store, opts...), store
}

func sampleGoods(name string) Goods {
	return Goods{Name: name, Price: 1500, Stock: domain.StockInStock, Group: "apparel", Description: "festival " + name}
}

func sampleTicket(name string) EventTicketInfo {
	start := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	return EventTicketInfo{
		Name:             name,
		Description:      "stage show",
		Capacity:         200,
		ApplicationStart: start,
		ApplicationEnd:   start.Add(72 * time.Hour),
		ExchangeEnd:      start.Add(96 * time.Hour),
	}
}

func sampleNews(title string) News {
	return News{Title: title, Content: "doors open at nine", Status: domain.NewsStatusDraft}
}

func mustCreateGoods(t *testing.T, svc *Service, g Goods) Goods {
	t.Helper()
	created, _, err := svc.CreateGoods(t.Context(), rootCaller, g)
	if err != nil {
		t.Fatalf("create goods %q: %v", g.Name, err)
	}
	return created
}

func mustCreateTicket(t *testing.T, svc *Service, e EventTicketInfo) EventTicketInfo {
	t.Helper()
	created, _, err := svc.CreateEventTicketInfo(t.Context(), rootCaller, e)
	if err != nil {
		t.Fatalf("create ticket event %q: %v", e.Name, err)
	}
	return created
}
