package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanikabot/nanika/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	t.Parallel()

	rb := logger.NewRingBuffer(3)
	assert.Nil(t, rb.Lines())

	rb.Add("a")
	rb.Add("b")
	assert.Equal(t, []string{"a", "b"}, rb.Lines())

	rb.Add("c")
	rb.Add("d")
	rb.Add("e")
	assert.Equal(t, []string{"c", "d", "e"}, rb.Lines())
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, 3, rb.Cap())
}

func TestLogRotator(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	rotator := logger.NewLogRotator(file, 3, path)
	t.Cleanup(func() { _ = rotator.Close() })

	for i := range 5 {
		_, err := fmt.Fprintf(rotator, "line %d\n", i)
		require.NoError(t, err)
	}

	// Below twice the limit nothing is dropped yet
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(content)), "\n"), 5)

	_, err = rotator.Write([]byte("line 5\n"))
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line 3\nline 4\nline 5\n", string(content))

	// Writes continue on the rotated file
	_, err = rotator.Write([]byte("line 6\nline 7\n"))
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line 3\nline 4\nline 5\nline 6\nline 7\n", string(content))
}
