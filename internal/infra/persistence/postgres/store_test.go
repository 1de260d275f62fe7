package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"festivalcore/internal/infra/persistence/memory"
	"festivalcore/internal/infra/persistence/postgres/testutil"
	"festivalcore/pkg/domain"
)

func openStub(t *testing.T) (*testutil.StubConn, func()) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	return conn, restore
}

func TestNewStoreCreatesTableAndLoadsSnapshot(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	payload, _ := json.Marshal(map[string]domain.Goods{
		"g1": {Base: domain.Base{ID: "g1"}, Name: "Towel", Stock: domain.StockInStock},
	})
	conn.State[memory.BucketGoods] = payload
	conn.State["legacy"] = []byte(`{"ignored":true}`)

	store, err := NewStore(context.Background(), "", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.ExportState().Goods["g1"]; got.Name != "Towel" {
		t.Fatalf("expected goods loaded from state table, got %+v", got)
	}
	if len(conn.Execs) == 0 || conn.Execs[0] == "" {
		t.Fatalf("expected state table DDL, got %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsEveryBucket(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	store, err := NewStore(context.Background(), "ignored", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateNews(domain.News{Title: "Opening", Status: domain.NewsStatusDraft})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	for _, bucket := range memory.BucketNames() {
		if _, ok := conn.Payload(bucket); !ok {
			t.Fatalf("expected bucket %s to be persisted", bucket)
		}
	}
	raw, _ := conn.Payload(memory.BucketNews)
	var news map[string]domain.News
	if err := json.Unmarshal(raw, &news); err != nil || len(news) != 1 {
		t.Fatalf("unexpected news payload %s (%v)", raw, err)
	}
}

func TestRunInTransactionReportsPersistFailure(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	store, err := NewStore(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailCommit = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateGoods(domain.Goods{Name: "Cap", Stock: domain.StockLow})
		return err
	})
	if err == nil {
		t.Fatalf("expected commit failure")
	}
}

func TestNewStorePingFailure(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	conn.FailPing = true
	if _, err := NewStore(context.Background(), "", nil); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestRestoreStateWritesThrough(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	store, err := NewStore(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snapshot := memory.Snapshot{Admins: map[string]domain.Admin{
		"a1": {Base: domain.Base{ID: "a1"}, Name: "root", Permissions: []domain.Permission{domain.PermissionAdmin}},
	}}
	if err := store.RestoreState(context.Background(), snapshot); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if raw, ok := conn.Payload(memory.BucketAdmins); !ok || len(raw) < 3 {
		t.Fatalf("expected admins persisted, got %q", raw)
	}
}
