package suggest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysinput/internal/dictionary"
)

func newDict(t *testing.T, words string) *dictionary.Dictionary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(words), 0600))
	d, err := dictionary.New(path)
	require.NoError(t, err)
	return d
}

func TestPrefixCandidates(t *testing.T) {
	d := newDict(t, "complete\ncompletion\ncomputer\nbanana\n")
	s, err := New(d)
	require.NoError(t, err)

	got := s.For("comp")
	require.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, SourcePrefix, c.Source)
	}

	// Usage count drives the order within the prefix pass.
	require.NoError(t, d.RecordUse("computer"))
	s.Invalidate()
	got = s.For("comp")
	assert.Equal(t, "computer", got[0].Word)
}

func TestMinPrefixLen(t *testing.T) {
	d := newDict(t, "complete\n")
	s, err := New(d, WithMinPrefixLen(3))
	require.NoError(t, err)

	assert.Nil(t, s.For("co"))
	assert.NotEmpty(t, s.For("com"))
}

func TestMaxCandidatesCap(t *testing.T) {
	d := newDict(t, "aaa1\naaa2\naaa3\naaa4\naaa5\n")
	s, err := New(d, WithMaxCandidates(2))
	require.NoError(t, err)

	assert.Len(t, s.For("aaa"), 2)
}

func TestFuzzyFillsRemainder(t *testing.T) {
	// "recieve" is a transposition of "receive": no prefix match, but
	// high string similarity within the r bucket.
	d := newDict(t, "receive\nreceived\nrhino\n")
	s, err := New(d, WithFuzzyThreshold(0.85))
	require.NoError(t, err)

	got := s.For("recieve")
	require.NotEmpty(t, got)
	assert.Equal(t, "receive", got[0].Word)
	assert.Equal(t, SourceFuzzy, got[0].Source)
	assert.Less(t, got[0].Score, 1.0)

	for _, c := range got {
		assert.NotEqual(t, "rhino", c.Word, "dissimilar words stay out")
	}
}

func TestFuzzyRequiresSameFirstLetter(t *testing.T) {
	d := newDict(t, "wreceive\n")
	s, err := New(d, WithFuzzyThreshold(0.5))
	require.NoError(t, err)

	assert.Empty(t, s.For("receive"))
}

func TestBest(t *testing.T) {
	d := newDict(t, "window\nwinter\n")
	s, err := New(d)
	require.NoError(t, err)

	best, ok := s.Best("win")
	require.True(t, ok)
	assert.Equal(t, "window", best)

	_, ok = s.Best("zzz")
	assert.False(t, ok)
}

func TestCacheServesAndInvalidates(t *testing.T) {
	d := newDict(t, "window\nwinter\n")
	s, err := New(d)
	require.NoError(t, err)

	first := s.For("win")
	require.NotEmpty(t, first)

	// A dictionary change without invalidation is not picked up.
	require.NoError(t, d.RecordUse("winter"))
	require.NoError(t, d.RecordUse("winter"))
	cached := s.For("win")
	assert.Equal(t, first[0].Word, cached[0].Word)

	s.Invalidate()
	fresh := s.For("win")
	assert.Equal(t, "winter", fresh[0].Word)
}
