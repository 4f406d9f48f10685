package roster

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind says which list a roster row belongs to.
type Kind string

const (
	KindPerson  Kind = "person"
	KindCompany Kind = "company"
)

// ParseKind accepts person/people and company/org/organization in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "people":
		return KindPerson, nil
	case "company", "org", "organization", "organisation":
		return KindCompany, nil
	default:
		return "", fmt.Errorf("unknown kind %q (must be person or company)", s)
	}
}

// Record is a single roster row.
type Record struct {
	Name string `csv:"name" parquet:"name" json:"name"`
	Kind string `csv:"kind" parquet:"kind" json:"kind"`
}

// Result summarizes one import.
type Result struct {
	TotalRecords int64             `json:"total_records"`
	Valid        int64             `json:"valid"`
	Invalid      int64             `json:"invalid"`
	Duplicates   int64             `json:"duplicates"`
	Duration     time.Duration     `json:"duration"`
	Errors       []ValidationError `json:"errors,omitempty"`

	People    []string `json:"people"`
	Companies []string `json:"companies"`
}

// Config contains importer configuration
type Config struct {
	BatchSize      int `yaml:"batch_size" mapstructure:"batch_size"`           // 500
	ProgressReport int `yaml:"progress_report" mapstructure:"progress_report"` // 5000
	MaxNameLength  int `yaml:"max_name_length" mapstructure:"max_name_length"` // 200
	MaxErrors      int `yaml:"max_errors" mapstructure:"max_errors"`           // 20
}

// DefaultConfig returns the importer defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:      500,
		ProgressReport: 5000,
		MaxNameLength:  200,
		MaxErrors:      20,
	}
}

// ValidationError represents a rejected roster row
type ValidationError struct {
	Row     int64  `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Message)
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "jsonl"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}
