// Package clipboard moves text between the session and the OS clipboard.
package clipboard

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrUnavailable is returned by builds without clipboard support.
	ErrUnavailable = errors.New("clipboard support not compiled in (built with noclipboard)")
	// ErrEmpty is returned by Paste when the clipboard holds only whitespace.
	ErrEmpty = errors.New("clipboard is empty")
)

// Clipboard reads and writes plain UTF-8 text.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Paste reads the clipboard and rejects empty content.
func Paste(c Clipboard) (string, error) {
	text, err := c.Read()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Memory is an in-process clipboard for tests and headless runs.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
