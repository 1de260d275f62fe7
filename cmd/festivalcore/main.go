// Command festivalcore runs the festival admin console backend and its
// operator tasks: serving the HTTP API, seeding, and backup/restore.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"festivalcore/internal/config"
)

var errUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) error
}

var commands = map[string]command{
	"serve":   {summary: "serve the HTTP API", run: runServe},
	"seed":    {summary: "create records from a YAML seed file", run: runSeed},
	"backup":  {summary: "write a snapshot of the store to the blob store", run: runBackup},
	"backups": {summary: "list stored backups", run: runListBackups},
	"restore": {summary: "replace the store with a stored backup", run: runRestore},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	flagSet := pflag.NewFlagSet("festivalcore "+name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	bindConfigFlags(flagSet, &cfg)
	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cmd.run(ctx, cfg, flagSet.Args(), stdout, stderr)
}

// bindConfigFlags exposes the settings operators override most often. Flag
// defaults come from the environment, so a flag wins over its variable.
func bindConfigFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "listen address for the HTTP API")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP collector URL; empty disables tracing")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "grace period for in-flight requests")
	fs.StringVar(&cfg.Metrics, "metrics", cfg.Metrics, "metrics backend served at /metrics (prometheus, expvar)")
	fs.StringVar(&cfg.TraceFile, "trace-file", cfg.TraceFile, "append JSON spans to this file when no OTLP endpoint is set")
	fs.StringVar(&cfg.SeedFile, "seed-file", cfg.SeedFile, "YAML seed file applied at startup")
	fs.StringVar(&cfg.Storage.Driver, "storage-driver", cfg.Storage.Driver, "entity store (memory, sqlite, postgres)")
	fs.StringVar(&cfg.Storage.SQLitePath, "sqlite-path", cfg.Storage.SQLitePath, "SQLite database file")
	fs.StringVar(&cfg.Storage.PostgresDSN, "postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL connection string")
	fs.StringVar(&cfg.Blob.Driver, "blob-driver", cfg.Blob.Driver, "backup store (fs, s3, memory)")
	fs.StringVar(&cfg.Blob.FSRoot, "blob-root", cfg.Blob.FSRoot, "root directory of the fs backup store")
	fs.StringVar(&cfg.Blob.S3.Bucket, "s3-bucket", cfg.Blob.S3.Bucket, "S3 bucket for backups")
	fs.StringVar(&cfg.Blob.S3.Endpoint, "s3-endpoint", cfg.Blob.S3.Endpoint, "custom S3 endpoint, e.g. MinIO")
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: festivalcore <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nRun 'festivalcore <command> --help' for command flags.\n")
}
