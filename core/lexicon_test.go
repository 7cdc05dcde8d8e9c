package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexicon(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		lex := testLexicon(t)
		w, ok := lex.Lookup("fast")
		require.True(t, ok)
		assert.Equal(t, Weight{Importance: 4, Quality: 1}, w)
		assert.Equal(t, "testdata/lexicon.json", lex.Source())
	})

	t.Run("yaml", func(t *testing.T) {
		lex, err := LoadLexicon("testdata/lexicon.yaml")
		require.NoError(t, err)
		assert.Equal(t, 2, lex.Len())
		w, ok := lex.Lookup("excellent")
		require.True(t, ok)
		assert.Equal(t, 5.0, w.Quality)
	})

	t.Run("keys are lowercased", func(t *testing.T) {
		lex := testLexicon(t)
		_, ok := lex.Lookup("refund")
		assert.True(t, ok)
		_, ok = lex.Lookup("Refund")
		assert.False(t, ok)
	})

	t.Run("non alphabetic keys are dropped", func(t *testing.T) {
		lex := testLexicon(t)
		_, ok := lex.Lookup("4k")
		assert.False(t, ok)
		assert.Equal(t, 6, lex.Len())
	})
}

func TestLoadLexiconErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"malformed json", write("bad.json", `{"fast": {"importance": "high"`)},
		{"malformed yaml", write("bad.yaml", "fast: [1, 2\n")},
		{"empty mapping", write("empty.json", `{}`)},
		{"only unusable keys", write("digits.json", `{"123": {"importance": 1, "quality": 1}}`)},
		{"keys differing only in case", write("dup.json", `{"fast": {"importance": 4, "quality": 1}, "Fast": {"importance": 0, "quality": 5}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex, err := LoadLexicon(tt.path)
			assert.Nil(t, lex)
			assert.ErrorIs(t, err, contract.ErrConfiguration)
		})
	}
}

func TestParseLexiconUnknownFormat(t *testing.T) {
	_, err := ParseLexicon([]byte(`{}`), "toml")
	assert.ErrorIs(t, err, contract.ErrConfiguration)
}

func TestNewLexiconCaseCollision(t *testing.T) {
	raw := map[string]Weight{
		"fast": {Importance: 4, Quality: 1},
		"FAST": {Importance: 0, Quality: 5},
		"slow": {Importance: 4, Quality: 2},
	}
	// Every load fails the same way regardless of map iteration order
	for range 50 {
		lex, err := NewLexicon(raw)
		assert.Nil(t, lex)
		require.ErrorIs(t, err, contract.ErrConfiguration)
		assert.Contains(t, err.Error(), `"FAST" and "fast"`)
	}

	lex, err := NewLexicon(map[string]Weight{"Fast": {Importance: 4, Quality: 1}, "slow": {Importance: 4, Quality: 2}})
	require.NoError(t, err)
	w, ok := lex.Lookup("fast")
	require.True(t, ok)
	assert.Equal(t, Weight{Importance: 4, Quality: 1}, w)
}
