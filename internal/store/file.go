package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
	"github.com/raaihank/meeting-sentinel/internal/names"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
)

const tempFilePrefix = "sentinel-tmp-"

// FileConfig locates the three records on disk. Relative paths resolve
// against Dir. A .yaml or .yml extension selects YAML, anything else JSON.
type FileConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	NamesFile    string `yaml:"names_file" mapstructure:"names_file"`
	NameMapFile  string `yaml:"name_map_file" mapstructure:"name_map_file"`
	DefaultsFile string `yaml:"defaults_file" mapstructure:"defaults_file"`
}

// FileStore keeps each record in its own file.
type FileStore struct {
	config FileConfig
	logger *zap.Logger
}

// NewFileStore creates the data directory if needed.
func NewFileStore(config FileConfig, logger *zap.Logger) (*FileStore, error) {
	if config.NamesFile == "" {
		config.NamesFile = "names.json"
	}
	if config.NameMapFile == "" {
		config.NameMapFile = "name_map.json"
	}
	if config.DefaultsFile == "" {
		config.DefaultsFile = "defaults.json"
	}
	if config.Dir != "" {
		if err := os.MkdirAll(config.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	logger.Debug("File store ready",
		zap.String("dir", config.Dir),
		zap.String("names", config.NamesFile),
		zap.String("name_map", config.NameMapFile),
		zap.String("defaults", config.DefaultsFile),
	)

	return &FileStore{config: config, logger: logger}, nil
}

func (s *FileStore) path(name string) string {
	if filepath.IsAbs(name) || s.config.Dir == "" {
		return name
	}
	return filepath.Join(s.config.Dir, name)
}

// LoadNames reads the names record.
func (s *FileStore) LoadNames(_ context.Context) (names.List, error) {
	var list names.List
	if err := s.read(s.config.NamesFile, &list); err != nil {
		return names.List{}, err
	}
	return list, nil
}

// SaveNames overwrites the names record.
func (s *FileStore) SaveNames(_ context.Context, list names.List) error {
	if list.People == nil {
		list.People = []string{}
	}
	if list.Companies == nil {
		list.Companies = []string{}
	}
	return s.write(s.config.NamesFile, list)
}

// LoadNameMap reads the map written by the last anonymization.
func (s *FileStore) LoadNameMap(_ context.Context) (privacy.NameMap, error) {
	m := privacy.NameMap{}
	if err := s.read(s.config.NameMapFile, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveNameMap overwrites the name map record.
func (s *FileStore) SaveNameMap(_ context.Context, m privacy.NameMap) error {
	if m == nil {
		m = privacy.NameMap{}
	}
	return s.write(s.config.NameMapFile, m)
}

// LoadDefaults reads the defaults record.
func (s *FileStore) LoadDefaults(_ context.Context) (defaults.Text, error) {
	var stored storedDefaults
	if err := s.read(s.config.DefaultsFile, &stored); err != nil {
		return defaults.Builtin(), err
	}
	return stored.resolve(), nil
}

// SaveDefaults overwrites the defaults record.
func (s *FileStore) SaveDefaults(_ context.Context, text defaults.Text) error {
	return s.write(s.config.DefaultsFile, toStored(text))
}

// Close is a no-op for files.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(name string, v interface{}) error {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return corrupt(path, err)
	}
	return nil
}

func (s *FileStore) write(name string, v interface{}) error {
	path := s.path(name)

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return err
	}

	s.logger.Debug("Record saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}
