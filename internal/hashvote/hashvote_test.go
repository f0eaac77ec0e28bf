package hashvote_test

import (
	"crypto/sha1"
	"encoding/hex"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nastygram/internal/hashvote"
	"nastygram/internal/nasty"
)

func TestMajorityNoiseFreeMatchesTrueSHA1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	content := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	size, err := hashvote.StatSize(path)
	require.NoError(t, err)

	digest, err := hashvote.Majority(hashvote.OS, path, size)
	require.NoError(t, err)

	want := sha1.Sum(content)
	require.Equal(t, hex.EncodeToString(want[:]), digest)
}

func TestMajorityRecoversTrueDigestUnderLowCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	content := make([]byte, 2000)
	for i := range content {
		content[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	size, err := hashvote.StatSize(path)
	require.NoError(t, err)

	factory := &nasty.Factory{Level: 1, Rnd: rand.New(rand.NewSource(99))}
	digest, err := hashvote.Majority(factory, path, size)
	require.NoError(t, err)

	want := sha1.Sum(content)
	require.Equal(t, hex.EncodeToString(want[:]), digest)
}

func TestMajorityReturnsErrOpenOnMissingFile(t *testing.T) {
	_, err := hashvote.Majority(hashvote.OS, "/nonexistent/path/does/not/exist", -1)
	require.ErrorIs(t, err, hashvote.ErrOpen)
}

func TestStatSizeReturnsErrStatOnMissingFile(t *testing.T) {
	_, err := hashvote.StatSize("/nonexistent/path/does/not/exist")
	require.ErrorIs(t, err, hashvote.ErrStat)
}
