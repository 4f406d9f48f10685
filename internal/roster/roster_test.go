package roster

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/names"
)

func newImporter(batch int) *Importer {
	return NewImporter(Config{BatchSize: batch}, zap.NewNop())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"person", KindPerson, true},
		{" People ", KindPerson, true},
		{"Company", KindCompany, true},
		{"ORG", KindCompany, true},
		{"organization", KindCompany, true},
		{"place", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFileFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFileFormat("roster.csv"))
	assert.Equal(t, FormatParquet, DetectFileFormat("roster.PARQUET"))
	assert.Equal(t, FormatJSON, DetectFileFormat("roster.jsonl"))
	assert.Equal(t, FormatJSON, DetectFileFormat("roster.json"))
	assert.Equal(t, FormatCSV, DetectFileFormat("roster"))
}

func TestReadCSV(t *testing.T) {
	input := `kind,name,team
person,Alice Smith,sales
company,Acme Corp,
org, Globex ,
person,,x
planet,Mars,
person,Alice Smith,sales
person,"Smith, John",
person
`
	// batch of 2 forces several flushes
	result, err := newImporter(2).Read(context.Background(), strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice Smith"}, result.People)
	assert.Equal(t, []string{"Acme Corp", "Globex"}, result.Companies)
	assert.Equal(t, int64(8), result.TotalRecords)
	assert.Equal(t, int64(4), result.Valid)
	assert.Equal(t, int64(4), result.Invalid)
	assert.Equal(t, int64(1), result.Duplicates)

	require.Len(t, result.Errors, 4)
	assert.Equal(t, int64(5), result.Errors[0].Row)
	assert.Equal(t, "name", result.Errors[0].Field)
	assert.Equal(t, "kind", result.Errors[1].Field)
	assert.Equal(t, "Mars", result.Errors[1].Value)
	assert.Contains(t, result.Errors[2].Message, "comma")
	assert.Equal(t, "missing columns", result.Errors[3].Message)
}

func TestReadCSVHeader(t *testing.T) {
	_, err := newImporter(10).Read(context.Background(), strings.NewReader("first,last\nA,B\n"), FormatCSV)
	assert.ErrorContains(t, err, "name and kind")

	_, err = newImporter(10).Read(context.Background(), strings.NewReader(""), FormatCSV)
	assert.Error(t, err)
}

func TestReadJSONLines(t *testing.T) {
	input := `{"name":"Bob","kind":"person"}

{"name":"Initech","kind":"company"}
not json
{"name":"Bob","kind":"PERSON"}
`
	result, err := newImporter(10).Read(context.Background(), strings.NewReader(input), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"Bob"}, result.People)
	assert.Equal(t, []string{"Initech"}, result.Companies)
	assert.Equal(t, int64(1), result.Invalid)
	assert.Equal(t, int64(4), result.Errors[0].Row)
	assert.Equal(t, int64(1), result.Duplicates)
}

func TestReadParquet(t *testing.T) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[Record](&buf)
	_, err := w.Write([]Record{
		{Name: "Carol", Kind: "person"},
		{Name: "Umbrella", Kind: "company"},
		{Name: "", Kind: "person"},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "roster.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	result, err := newImporter(10).ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol"}, result.People)
	assert.Equal(t, []string{"Umbrella"}, result.Companies)
	assert.Equal(t, int64(1), result.Invalid)

	result, err = newImporter(10).Read(context.Background(), bytes.NewReader(buf.Bytes()), FormatParquet)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalRecords)
}

func TestReadParquetRejectsGarbage(t *testing.T) {
	_, err := newImporter(10).Read(context.Background(), strings.NewReader("not parquet"), FormatParquet)
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := newImporter(10).ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newImporter(1).Read(ctx, strings.NewReader("name,kind\nA,person\nB,person\n"), FormatCSV)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxErrors(t *testing.T) {
	input := "name,kind\n" + strings.Repeat(",person\n", 30)
	result, err := NewImporter(Config{MaxErrors: 5}, zap.NewNop()).Read(context.Background(), strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.Invalid)
	assert.Len(t, result.Errors, 5)
}

func TestApply(t *testing.T) {
	list := names.List{People: []string{"Alice"}, Companies: []string{"Acme"}}
	merged := Apply(list, &Result{People: []string{"Bob", "Alice"}, Companies: []string{"Globex"}})

	assert.Equal(t, []string{"Alice", "Bob"}, merged.People)
	assert.Equal(t, []string{"Acme", "Globex"}, merged.Companies)
	assert.Equal(t, []string{"Alice"}, list.People)
}
