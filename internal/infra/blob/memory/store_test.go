package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"festivalcore/internal/blob/core"
)

func TestPutGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	info, err := s.Put(ctx, "backups/a.json", strings.NewReader("{}"), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"entities": "0"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 2 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "backups/a.json", strings.NewReader("{}"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "other/b.json", strings.NewReader("[]"), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}

	got, rc, err := s.Get(ctx, "backups/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "{}" || got.Metadata["entities"] != "0" {
		t.Fatalf("unexpected blob %q %+v", body, got)
	}
	got.Metadata["entities"] = "mutated"
	head, err := s.Head(ctx, "backups/a.json")
	if err != nil || head.Metadata["entities"] != "0" {
		t.Fatalf("metadata should not alias: %+v %v", head, err)
	}

	list, err := s.List(ctx, "backups/")
	if err != nil || len(list) != 1 || list[0].Key != "backups/a.json" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key != "backups/a.json" {
		t.Fatalf("expected sorted full list, got %+v", all)
	}

	ok, err := s.Delete(ctx, "backups/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "backups/a.json"); ok {
		t.Fatalf("second delete should report missing")
	}
	if _, _, err := s.Get(ctx, "backups/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsEmptyKeyAndPresign(t *testing.T) {
	s := New()
	if _, err := s.Put(context.Background(), " ", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
