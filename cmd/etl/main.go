package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/app"
	"github.com/raaihank/meeting-sentinel/internal/config"
	"github.com/raaihank/meeting-sentinel/internal/roster"
)

var version = "0.1.0"

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Roster file (CSV, JSON lines or Parquet)")
		format     = flag.String("format", "", "Force the input format: csv, jsonl or parquet")
		batchSize  = flag.Int("batch-size", 0, "Rows per batch (default from config)")
		dryRun     = flag.Bool("dry-run", false, "Report what would be imported without saving")
		jsonReport = flag.Bool("json", false, "Print the import report as JSON")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input roster.csv --dry-run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input crm-export.parquet --batch-size 1000\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the report
	cfg.Logging.Output = "stderr"

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting meeting-sentinel roster import",
		zap.String("version", version),
		zap.String("input", *inputFile),
		zap.Bool("dry_run", *dryRun))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling import...")
		cancel()
	}()

	rc := cfg.Roster
	if *batchSize > 0 {
		rc.BatchSize = *batchSize
	}
	importer := roster.NewImporter(rc, log.Logger)

	result, err := readRoster(ctx, importer, *inputFile, roster.FileFormat(*format))
	if err != nil {
		log.Fatal("Roster import failed", zap.Error(err))
	}

	if !*dryRun {
		a, err := app.Open(ctx, cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize services", zap.Error(err))
		}
		defer a.Close()

		before := a.Session.Names()
		merged, err := a.Session.AcceptSuggestions(ctx, result.People, result.Companies)
		if err != nil {
			log.Fatal("Failed to save names", zap.Error(err))
		}
		log.Info("Names merged",
			zap.Int("people_added", len(merged.People)-len(before.People)),
			zap.Int("companies_added", len(merged.Companies)-len(before.Companies)),
			zap.Int("people_total", len(merged.People)),
			zap.Int("companies_total", len(merged.Companies)))
	}

	if err := printReport(result, *jsonReport, *dryRun); err != nil {
		log.Fatal("Failed to print report", zap.Error(err))
	}
}

func readRoster(ctx context.Context, im *roster.Importer, path string, format roster.FileFormat) (*roster.Result, error) {
	if format == "" {
		return im.ReadFile(ctx, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input file does not exist: %s", path)
	}
	defer file.Close()
	return im.Read(ctx, file, format)
}

func printReport(result *roster.Result, asJSON, dryRun bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("\n=== Roster Import ===\n")
	if dryRun {
		fmt.Printf("Mode:          dry run (nothing saved)\n")
	}
	fmt.Printf("Rows read:     %d\n", result.TotalRecords)
	fmt.Printf("Valid:         %d\n", result.Valid)
	fmt.Printf("Invalid:       %d\n", result.Invalid)
	fmt.Printf("Duplicates:    %d\n", result.Duplicates)
	fmt.Printf("People:        %d\n", len(result.People))
	fmt.Printf("Companies:     %d\n", len(result.Companies))
	fmt.Printf("Duration:      %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\n=== Rejected Rows ===\n")
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
	return nil
}
