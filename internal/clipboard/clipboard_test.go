package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenClipboard struct{}

func (brokenClipboard) Read() (string, error) { return "", errors.New("no display") }
func (brokenClipboard) Write(string) error    { return errors.New("no display") }

func TestPaste(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"text", "Person_0 presented", nil},
		{"empty", "", ErrEmpty},
		{"whitespace", " \n\t", ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Memory{}
			require.NoError(t, m.Write(tt.content))

			got, err := Paste(m)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, got)
		})
	}

	t.Run("read failure", func(t *testing.T) {
		_, err := Paste(brokenClipboard{})
		assert.EqualError(t, err, "no display")
	})
}
