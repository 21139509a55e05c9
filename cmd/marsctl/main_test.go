package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSourcePairsMatchesByModifiedSuffix(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"original_a.go", "modified_a.go", "original_b.go", "unrelated.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package p\n"), 0o644))
	}

	pairs, err := findSourcePairs(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 1, "original_b.go has no modified_b.go counterpart and should be skipped")
	assert.Equal(t, "a.go", pairs[0].name)
	assert.Equal(t, filepath.Join(dir, "original_a.go"), pairs[0].original)
	assert.Equal(t, filepath.Join(dir, "modified_a.go"), pairs[0].modified)
}

func TestFindSourcePairsEmptyDirReturnsNil(t *testing.T) {
	pairs, err := findSourcePairs(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
