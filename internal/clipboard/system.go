//go:build !noclipboard
// +build !noclipboard

package clipboard

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// System is the desktop clipboard.
type System struct{}

// New returns the desktop clipboard.
func New() Clipboard {
	return System{}
}

func (System) Read() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: read: %w", err)
	}
	return text, nil
}

func (System) Write(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}
