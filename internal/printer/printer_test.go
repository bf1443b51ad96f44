package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestError(t *testing.T) {
	plain(t)

	t.Run("returns error with title", func(t *testing.T) {
		var buf bytes.Buffer
		err := Error(&buf, "Test Error", "This is a test error", nil)
		require.Error(t, err)
		assert.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", buf.String())
	})

	t.Run("single suggestion is printed as is", func(t *testing.T) {
		var buf bytes.Buffer
		_ = Error(&buf, "Test Error", "Explanation", []string{"Try this fix"})
		assert.Contains(t, buf.String(), "\nTry this fix\n")
		assert.NotContains(t, buf.String(), "Either")
	})

	t.Run("several suggestions are numbered", func(t *testing.T) {
		var buf bytes.Buffer
		_ = Error(&buf, "Test Error", "Explanation", []string{"First option", "Second option"})
		assert.Contains(t, buf.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestMessagesArePrefixed(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	Success(&buf, "saved %s", "demo")
	Success(&buf, "✓ already marked")
	Warning(&buf, "careful")
	Step(&buf, "exporting")
	assert.Equal(t, "✓ saved demo\n✓ already marked\n⚠️  careful\n→ exporting\n", buf.String())
}
