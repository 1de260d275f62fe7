package core

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"festivalcore/internal/blob"
	"festivalcore/internal/config"
	infraS3 "festivalcore/internal/infra/blob/s3"
	"festivalcore/internal/safeupdate"
)

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	stores := map[string]blob.Store{
		"memory": mustOpenBlob(t, config.Blob{Driver: "memory"}),
		"fs":     mustOpenBlob(t, config.Blob{Driver: "fs", FSRoot: filepath.Join(t.TempDir(), "blobs")}),
		"s3":     infraS3.NewMockForTests(),
	}
	for name, blobs := range stores {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := t.Context()
			tee := mustCreateGoods(t, svc, sampleGoods("tee"))
			show := mustCreateTicket(t, svc, sampleTicket("live"))

			info, err := svc.Backup(ctx, rootCaller, blobs)
			if err != nil {
				t.Fatalf("backup: %v", err)
			}
			if !strings.HasPrefix(info.Key, BackupPrefix) || !strings.HasSuffix(info.Key, ".json") {
				t.Fatalf("unexpected backup key %s", info.Key)
			}

			changed := tee
			changed.Price = 9999
			if rep, err := svc.UpdateGoodsSafe(ctx, rootCaller, tee, changed); err != nil || rep.Outcome != safeupdate.Success {
				t.Fatalf("update: %+v %v", rep, err)
			}
			if _, err := svc.DeleteEventTicketInfo(ctx, rootCaller, show.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}

			if err := svc.Restore(ctx, rootCaller, blobs, info.Key); err != nil {
				t.Fatalf("restore: %v", err)
			}
			restored, err := svc.GetGoods(ctx, tee.ID)
			if err != nil || restored.Price != tee.Price || !restored.CreatedAt.Equal(tee.CreatedAt) {
				t.Fatalf("unexpected restored goods %+v %v", restored, err)
			}
			if _, err := svc.GetEventTicketInfo(ctx, show.ID); err != nil {
				t.Fatalf("ticket event should be back: %v", err)
			}

			list, err := svc.ListBackups(ctx, blobs)
			if err != nil || len(list) != 1 || list[0].Key != info.Key {
				t.Fatalf("unexpected backups %+v %v", list, err)
			}
		})
	}
}

func TestBackupAndRestoreRejections(t *testing.T) {
	svc, store := newTestService(t)
	ctx := t.Context()
	blobs := mustOpenBlob(t, config.Blob{Driver: "memory"})
	mustCreateGoods(t, svc, sampleGoods("tee"))

	if _, err := svc.Backup(ctx, newsCaller, blobs); !errors.As(err, new(ErrForbidden)) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Restore(ctx, newsCaller, blobs, "backups/x.json"); !errors.As(err, new(ErrForbidden)) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Restore(ctx, rootCaller, blobs, "elsewhere/x.json"); !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := svc.Restore(ctx, rootCaller, blobs, "backups/missing.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := blobs.Put(ctx, "backups/garbage.json", strings.NewReader("not json"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := svc.Restore(ctx, rootCaller, blobs, "backups/garbage.json"); err == nil {
		t.Fatalf("expected decode failure")
	}

	invalid := `{"goods":{"g1":{"id":"other","name":"tee","stock":"in_stock"}}}`
	if _, err := blobs.Put(ctx, "backups/invalid.json", strings.NewReader(invalid), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	before := store.ExportState()
	if err := svc.Restore(ctx, rootCaller, blobs, "backups/invalid.json"); err == nil {
		t.Fatalf("expected validation failure")
	}
	if after := store.ExportState(); after.Len() != before.Len() {
		t.Fatalf("failed restore must not replace state")
	}
}

func mustOpenBlob(t *testing.T, cfg config.Blob) blob.Store {
	t.Helper()
	store, err := blob.Open(t.Context(), cfg)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	return store
}
