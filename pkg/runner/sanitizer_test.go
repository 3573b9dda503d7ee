package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain question", "How many legs does a spider have?", "How many legs does a spider have?", nil},
		{"paragraphs keep layout", "Para one.\n\tPara two.\r\nQ?", "Para one.\n\tPara two.\r\nQ?", nil},
		{"ansi escape", "\x1b[31mRed\x1b[0m", "[31mRed[0m", nil},
		{"null byte", "Null\x00Byte", "NullByte", nil},
		{"bell", "Ding\x07", "Ding", nil},
		{"at limit", strings.Repeat("a", DefaultMaxInputSize), strings.Repeat("a", DefaultMaxInputSize), nil},
		{"over limit", strings.Repeat("a", DefaultMaxInputSize+1), "", ErrInputTooLarge},
		{"invalid utf8", "\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98", "", ErrInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput("12345")
	assert.NoError(t, err)

	t.Setenv(EnvMaxInputSize, "not-a-number")
	_, err = SanitizeInput(strings.Repeat("a", 100))
	assert.NoError(t, err, "invalid overrides fall back to the default")
}
