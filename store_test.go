package mars

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePattern(name string) *Pattern {
	wc := NewWildcard(NewConstant(ConstantNumber, "1"), EditOpDelete)
	wc.Index = 1
	use := NewUse(NewConstant(ConstantNumber, "2"), EditOpInsert)
	use.Index = 1

	return &Pattern{
		Original: NewAssign(NewVariable("x"), "=", wc),
		Modified: NewAssign(NewVariable("x"), "+=", use),
		Pairing:  NewPairing(),
		Name:     name,
	}
}

func TestStoreSaveAndLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	s := NewStorageContext(path)

	p := samplePattern("increment-style")
	require.NoError(t, s.Save(p))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assert.Equal(t, "increment-style", loaded[0].Name)
	assert.True(t, loaded[0].Original.Equals(p.Original))
	assert.True(t, loaded[0].Modified.Equals(p.Modified))
}

func TestStoreSaveAppendsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	s := NewStorageContext(path)

	require.NoError(t, s.Save(samplePattern("first")))
	require.NoError(t, s.Save(samplePattern("second")))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "first", loaded[0].Name)
	assert.Equal(t, "second", loaded[1].Name)
}

func TestStoreLoadOnMissingFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	s := NewStorageContext(path)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoreRewriteReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	s := NewStorageContext(path)

	require.NoError(t, s.Save(samplePattern("stale")))
	require.NoError(t, s.Rewrite([]*Pattern{samplePattern("fresh")}))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "fresh", loaded[0].Name)
}

func TestStoreDeleteRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	s := NewStorageContext(path)
	require.NoError(t, s.Save(samplePattern("doomed")))

	require.NoError(t, s.Delete())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoreDeleteOnMissingFileIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	s := NewStorageContext(path)
	assert.NoError(t, s.Delete())
}

func TestStoreRoundTripsWildcardWrappedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	s := NewStorageContext(path)

	p := samplePattern("wrapped")
	require.NoError(t, s.Save(p))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assign, ok := loaded[0].Original.(*Assign)
	require.True(t, ok)
	wc, ok := assign.Value.(*Wildcard)
	require.True(t, ok)
	require.NotNil(t, wc.Wrapped, "the wildcard's wrapped payload must survive the round trip")
	assert.True(t, wc.Wrapped.Equals(NewConstant(ConstantNumber, "1")))
	assert.Equal(t, 1, wc.Index)
}
