package core

import (
	"strings"
	"unicode"
)

// DefaultImportance is used when no keyword in the text carries a weight.
const DefaultImportance = 2.0

// genericKeywords are commerce words too common in reviews to say anything about them.
var genericKeywords = map[string]struct{}{
	"product": {}, "item": {}, "thing": {}, "purchase": {}, "order": {},
	"company": {}, "store": {}, "website": {}, "service": {}, "site": {},
	"brand": {}, "shop": {}, "business": {}, "experience": {}, "delivery": {},
	"customer": {}, "checkout": {}, "shopping": {}, "team": {}, "market": {},
	"review": {}, "feedback": {}, "discount": {}, "return": {}, "exchange": {},
	"warranty": {}, "support": {},
}

// KeywordScore is the raw lexical signal of a text before sentiment and rating.
type KeywordScore struct {
	RawImportance     float64
	RawQuality        float64
	ImportanceMatches int
	QualityMatches    int
	Matched           []string
}

// Tokenize lowercases text and splits it into runs of letters, digits and underscores.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

// IsMeaningfulKeyword reports whether a token may contribute to a score.
func IsMeaningfulKeyword(word string) bool {
	if !isAlpha(word) {
		return false
	}
	_, generic := genericKeywords[word]
	return !generic
}

// ScoreKeywords averages the weights of every meaningful keyword in text.
// Repeated keywords count once per occurrence.
func (l *Lexicon) ScoreKeywords(text string) KeywordScore {
	var ks KeywordScore
	var impSum, qualSum float64
	for _, tok := range Tokenize(text) {
		w, ok := l.Lookup(tok)
		if !ok || !IsMeaningfulKeyword(tok) {
			continue
		}
		impSum += w.Importance
		ks.ImportanceMatches++
		qualSum += w.Quality
		ks.QualityMatches++
		ks.Matched = append(ks.Matched, tok)
	}

	ks.RawImportance = DefaultImportance
	if ks.ImportanceMatches > 0 {
		ks.RawImportance = impSum / float64(ks.ImportanceMatches)
	}
	if ks.QualityMatches > 0 {
		ks.RawQuality = qualSum / float64(ks.QualityMatches)
	}
	return ks
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
