// Package roster bulk-loads people and company names from CSV, JSON lines
// or Parquet files.
package roster

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/names"
)

// Importer reads roster files into name lists.
type Importer struct {
	config Config
	logger *zap.Logger
}

type row struct {
	line int64
	rec  Record
	err  *ValidationError
}

// NewImporter creates a new roster importer
func NewImporter(config Config, logger *zap.Logger) *Importer {
	def := DefaultConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.ProgressReport <= 0 {
		config.ProgressReport = def.ProgressReport
	}
	if config.MaxNameLength <= 0 {
		config.MaxNameLength = def.MaxNameLength
	}
	if config.MaxErrors <= 0 {
		config.MaxErrors = def.MaxErrors
	}
	return &Importer{config: config, logger: logger}
}

// ReadFile imports a roster file, picking the format from its extension.
func (im *Importer) ReadFile(ctx context.Context, path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer file.Close()

	format := DetectFileFormat(path)
	im.logger.Info("Importing roster", zap.String("file", path), zap.String("format", string(format)))

	if format == FormatParquet {
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat roster file: %w", err)
		}
		return im.run(ctx, func(emit func(row) error) error { return im.scanParquet(file, info.Size(), emit) })
	}
	return im.Read(ctx, file, format)
}

// Read imports a roster from r.
func (im *Importer) Read(ctx context.Context, r io.Reader, format FileFormat) (*Result, error) {
	switch format {
	case FormatCSV:
		return im.run(ctx, func(emit func(row) error) error { return im.scanCSV(r, emit) })
	case FormatJSON:
		return im.run(ctx, func(emit func(row) error) error { return im.scanJSON(r, emit) })
	case FormatParquet:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet roster: %w", err)
		}
		return im.run(ctx, func(emit func(row) error) error {
			return im.scanParquet(bytes.NewReader(data), int64(len(data)), emit)
		})
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", format)
	}
}

// run drains scan in batches and collects valid names in first-seen order.
func (im *Importer) run(ctx context.Context, scan func(emit func(row) error) error) (*Result, error) {
	start := time.Now()
	result := &Result{People: []string{}, Companies: []string{}}
	seen := make(map[string]struct{})

	batch := make([]row, 0, im.config.BatchSize)
	flush := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		im.processBatch(batch, result, seen)
		batch = batch[:0]
		return nil
	}

	err := scan(func(r row) error {
		batch = append(batch, r)
		if len(batch) < im.config.BatchSize {
			return nil
		}
		return flush()
	})
	if err == nil {
		err = flush()
	}
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	im.logger.Info("Roster import completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("valid", result.Valid),
		zap.Int64("invalid", result.Invalid),
		zap.Int64("duplicates", result.Duplicates),
		zap.Int("people", len(result.People)),
		zap.Int("companies", len(result.Companies)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (im *Importer) processBatch(batch []row, result *Result, seen map[string]struct{}) {
	for _, r := range batch {
		result.TotalRecords++

		kind, verr := im.validate(r)
		if verr != nil {
			result.Invalid++
			if len(result.Errors) < im.config.MaxErrors {
				result.Errors = append(result.Errors, *verr)
			}
			im.logger.Debug("Invalid roster row", zap.String("reason", verr.Error()))
			continue
		}
		result.Valid++

		name := strings.TrimSpace(r.rec.Name)
		key := string(kind) + "\x00" + name
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		if kind == KindPerson {
			result.People = append(result.People, name)
		} else {
			result.Companies = append(result.Companies, name)
		}

		if result.TotalRecords%int64(im.config.ProgressReport) == 0 {
			im.logger.Info("Roster import progress", zap.Int64("records_processed", result.TotalRecords))
		}
	}
}

func (im *Importer) validate(r row) (Kind, *ValidationError) {
	if r.err != nil {
		return "", r.err
	}

	name := strings.TrimSpace(r.rec.Name)
	if name == "" {
		return "", &ValidationError{Row: r.line, Field: "name", Message: "empty name"}
	}
	if len(name) > im.config.MaxNameLength {
		return "", &ValidationError{Row: r.line, Field: "name", Value: name[:32] + "...", Message: "name too long"}
	}
	// commas would split the name on the next CSV export
	if strings.Contains(name, ",") {
		return "", &ValidationError{Row: r.line, Field: "name", Value: name, Message: "name contains a comma"}
	}

	kind, err := ParseKind(r.rec.Kind)
	if err != nil {
		return "", &ValidationError{Row: r.line, Field: "kind", Value: r.rec.Kind, Message: err.Error()}
	}
	return kind, nil
}

// scanCSV reads a CSV roster with a header naming the name and kind columns.
func (im *Importer) scanCSV(r io.Reader, emit func(row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("roster csv is empty")
		}
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	nameCol, kindCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameCol = i
		case "kind", "type":
			kindCol = i
		}
	}
	if nameCol < 0 || kindCol < 0 {
		return fmt.Errorf("roster csv header must have name and kind columns, got %v", header)
	}
	im.logger.Debug("CSV header detected", zap.Strings("columns", header))

	var line int64 = 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++

		var perr *csv.ParseError
		switch {
		case err == nil:
		case errors.As(err, &perr):
			if e := emit(row{line: line, err: &ValidationError{Row: line, Field: "row", Message: perr.Err.Error()}}); e != nil {
				return e
			}
			continue
		default:
			return fmt.Errorf("failed to read CSV record: %w", err)
		}

		if nameCol >= len(record) || kindCol >= len(record) {
			if e := emit(row{line: line, err: &ValidationError{Row: line, Field: "row", Message: "missing columns"}}); e != nil {
				return e
			}
			continue
		}
		if e := emit(row{line: line, rec: Record{Name: record[nameCol], Kind: record[kindCol]}}); e != nil {
			return e
		}
	}
}

// scanJSON reads one JSON object per line. Blank lines are skipped.
func (im *Importer) scanJSON(r io.Reader, emit func(row) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var line int64
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			if e := emit(row{line: line, err: &ValidationError{Row: line, Field: "row", Message: err.Error()}}); e != nil {
				return e
			}
			continue
		}
		if e := emit(row{line: line, rec: rec}); e != nil {
			return e
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read JSON roster: %w", err)
	}
	return nil
}

func (im *Importer) scanParquet(r io.ReaderAt, size int64, emit func(row) error) error {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return fmt.Errorf("failed to open Parquet roster: %w", err)
	}
	reader := parquet.NewReader(file)
	defer reader.Close()

	var line int64
	for {
		var rec Record
		err := reader.Read(&rec)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read Parquet record: %w", err)
		}
		line++
		if e := emit(row{line: line, rec: rec}); e != nil {
			return e
		}
	}
}

// Apply merges an import result into list, keeping existing entries first.
func Apply(list names.List, result *Result) names.List {
	return list.Merge(result.People, result.Companies)
}
