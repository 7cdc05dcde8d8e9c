package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/revscore/internal/contract"
	"gopkg.in/yaml.v3"
)

// Weight is the per-keyword contribution to importance and quality.
type Weight struct {
	Importance float64 `json:"importance" yaml:"importance"`
	Quality    float64 `json:"quality" yaml:"quality"`
}

// Lexicon maps lowercase keywords to their baseline weights.
// It is immutable once loaded and safe for concurrent reads.
type Lexicon struct {
	weights map[string]Weight
	source  string
}

// LoadLexicon reads a lexicon artifact from disk. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, contract.NewConfigurationError(fmt.Sprintf("cannot read lexicon %s", path), err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	lex, err := ParseLexicon(data, format)
	if err != nil {
		return nil, err
	}
	lex.source = path
	return lex, nil
}

// ParseLexicon decodes a lexicon document in the given format (json or yaml).
func ParseLexicon(data []byte, format string) (*Lexicon, error) {
	raw := map[string]Weight{}
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &raw)
	case "json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, contract.NewConfigurationError(fmt.Sprintf("unsupported lexicon format %q", format), nil)
	}
	if err != nil {
		return nil, contract.NewConfigurationError("malformed lexicon", err)
	}
	return NewLexicon(raw)
}

// NewLexicon builds a lexicon from an in-memory mapping. Keys are lowercased and
// keys that are not purely alphabetic are dropped since no counted token can match them.
// Two keys that differ only in case are rejected.
func NewLexicon(raw map[string]Weight) (*Lexicon, error) {
	weights := make(map[string]Weight, len(raw))
	origin := make(map[string]string, len(raw))
	for key, w := range raw {
		word := strings.ToLower(strings.TrimSpace(key))
		if !isAlpha(word) {
			continue
		}
		if prev, dup := origin[word]; dup {
			first, second := prev, key
			if second < first {
				first, second = second, first
			}
			return nil, contract.NewConfigurationError(
				fmt.Sprintf("lexicon keys %q and %q collide after lowercasing", first, second), nil)
		}
		origin[word] = key
		weights[word] = w
	}
	if len(weights) == 0 {
		return nil, contract.NewConfigurationError("lexicon has no usable keywords", nil)
	}
	return &Lexicon{weights: weights}, nil
}

// Lookup returns the weight of word, which must already be lowercase.
func (l *Lexicon) Lookup(word string) (Weight, bool) {
	w, ok := l.weights[word]
	return w, ok
}

// Len returns the number of keywords.
func (l *Lexicon) Len() int {
	return len(l.weights)
}

// Source returns the file the lexicon was loaded from, if any.
func (l *Lexicon) Source() string {
	return l.source
}
