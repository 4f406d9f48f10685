//go:build noclipboard
// +build noclipboard

package clipboard

// System is unavailable in noclipboard builds.
type System struct{}

// New returns a clipboard that always fails with ErrUnavailable.
func New() Clipboard {
	return System{}
}

func (System) Read() (string, error) { return "", ErrUnavailable }

func (System) Write(string) error { return ErrUnavailable }
