package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"festivalcore/internal/blob"
	"festivalcore/pkg/domain"
)

// BackupPrefix is the blob key prefix every backup is written under.
const BackupPrefix = "backups/"

// Actions recorded in the audit trail for whole-store operations.
const (
	ActionBackup  Action = "backup"
	ActionRestore Action = "restore"
)

// ErrStateUnsupported is returned when the service store cannot export or
// replace its state.
var ErrStateUnsupported = errors.New("store does not support state export")

func (s *Service) stateStore() (StateStore, error) {
	store, ok := s.store.(StateStore)
	if !ok {
		return nil, ErrStateUnsupported
	}
	return store, nil
}

// Backup writes a JSON snapshot of the whole store to blobs and returns the
// stored object. Backups require the admin permission.
func (s *Service) Backup(ctx context.Context, caller Caller, blobs blob.Store) (blob.Info, error) {
	op := operation{name: "backup", action: ActionBackup, actor: caller.ID}
	var info blob.Info
	err := s.run(ctx, op, func(ctx context.Context) (result, error) {
		if !caller.Permissions.Has(domain.PermissionAdmin) {
			return result{}, ErrForbidden{Operation: op.name, Permission: domain.PermissionAdmin}
		}
		store, err := s.stateStore()
		if err != nil {
			return result{}, err
		}
		snapshot := store.ExportState()
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return result{}, fmt.Errorf("encode snapshot: %w", err)
		}
		key := BackupPrefix + s.clock.Now().UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8] + ".json"
		info, err = blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"entities": strconv.Itoa(snapshot.Len())},
		})
		if err != nil {
			return result{entityID: key}, fmt.Errorf("write backup: %w", err)
		}
		s.logger.Info("backup written", "key", key, "entities", snapshot.Len(), "driver", string(blobs.Driver()))
		return result{entityID: key}, nil
	})
	return info, err
}

// Restore replaces the whole store with the backup stored under key. The
// snapshot is validated before anything is replaced.
func (s *Service) Restore(ctx context.Context, caller Caller, blobs blob.Store, key string) error {
	op := operation{name: "restore", action: ActionRestore, actor: caller.ID}
	return s.run(ctx, op, func(ctx context.Context) (result, error) {
		res := result{entityID: key}
		if !caller.Permissions.Has(domain.PermissionAdmin) {
			return res, ErrForbidden{Operation: op.name, Permission: domain.PermissionAdmin}
		}
		if !strings.HasPrefix(key, BackupPrefix) {
			return res, fmt.Errorf("restore %s: %w", key, blob.ErrInvalidKey)
		}
		store, err := s.stateStore()
		if err != nil {
			return res, err
		}
		_, rc, err := blobs.Get(ctx, key)
		if err != nil {
			return res, fmt.Errorf("read backup: %w", err)
		}
		defer rc.Close()
		var snapshot Snapshot
		if err := json.NewDecoder(rc).Decode(&snapshot); err != nil {
			return res, fmt.Errorf("decode backup %s: %w", key, err)
		}
		if err := store.RestoreState(ctx, snapshot); err != nil {
			return res, fmt.Errorf("restore backup %s: %w", key, err)
		}
		s.logger.Info("backup restored", "key", key, "entities", snapshot.Len())
		return res, nil
	})
}

// ListBackups returns the stored backups ordered by key, oldest first.
func (s *Service) ListBackups(ctx context.Context, blobs blob.Store) ([]blob.Info, error) {
	infos, err := blobs.List(ctx, BackupPrefix)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return infos, nil
}
