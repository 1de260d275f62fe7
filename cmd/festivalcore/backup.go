package main

import (
	"context"
	"fmt"
	"io"

	"festivalcore/internal/config"
	"festivalcore/internal/core"
)

func runBackup(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: backup takes no arguments", errUsage)
	}
	a, err := openApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		return err
	}
	info, err := a.service.Backup(ctx, core.SystemCaller(), blobs)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\t%d bytes\t%s entities\n", info.Key, info.Size, info.Metadata["entities"])
	return nil
}

func runListBackups(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: backups takes no arguments", errUsage)
	}
	a, err := openApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		return err
	}
	backups, err := a.service.ListBackups(ctx, blobs)
	if err != nil {
		return err
	}
	for _, info := range backups {
		fmt.Fprintf(stdout, "%s\t%d bytes\t%s\n", info.Key, info.Size, info.LastModified.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runRestore(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: restore takes exactly one backup key", errUsage)
	}
	key := args[0]
	a, err := openApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		return err
	}
	if err := a.service.Restore(ctx, core.SystemCaller(), blobs, key); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "restored %s\n", key)
	return nil
}
