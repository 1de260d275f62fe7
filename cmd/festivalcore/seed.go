package main

import (
	"context"
	"fmt"
	"io"

	"festivalcore/internal/config"
	"festivalcore/internal/core"
)

func runSeed(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	path := cfg.SeedFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("%w: seed needs a file argument or --seed-file", errUsage)
	}
	a, err := openApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, err := a.applySeedFile(ctx, path)
	if err != nil {
		return err
	}
	printSeedReport(stdout, report)
	return nil
}

func printSeedReport(w io.Writer, report core.SeedReport) {
	kinds := []core.EntityType{core.EntityAdmin, core.EntityNews, core.EntityGoods, core.EntityEventTicketInfo}
	for _, kind := range kinds {
		fmt.Fprintf(w, "%s: created %d, skipped %d\n", kind, report.Created[kind], report.Skipped[kind])
	}
}
