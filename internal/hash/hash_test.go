package hash_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/hash"
)

// sha256("hello world")
const helloSum = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestReader(t *testing.T) {
	sum, err := hash.Reader(context.Background(), strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, helloSum, sum)
}

func TestBuffer(t *testing.T) {
	assert.Equal(t, helloSum, hash.Buffer([]byte("hello world")))
}

func TestFile(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "echoclient.c")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

		sum, size, err := hash.File(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, helloSum, sum)
		assert.Equal(t, int64(11), size)
	})

	t.Run("Missing", func(t *testing.T) {
		_, _, err := hash.File(context.Background(), filepath.Join(t.TempDir(), "missing.c"))
		require.Error(t, err)
	})
}
