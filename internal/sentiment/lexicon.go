package sentiment

import (
	"context"
	_ "embed"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// maxInputBytes caps the text the lexicon classifier will look at.
const maxInputBytes = 1 << 20 // 1 MiB

// negationWindow is how many tokens after a negator still get flipped.
const negationWindow = 3

//go:embed lexicon.tsv
var rawLexicon string

// polarity maps lowercase words to scores in [-1, 1], built once at init.
var polarity map[string]float64

var wordPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nothing": {}, "hardly": {}, "without": {},
}

func init() {
	polarity = parseLexicon(rawLexicon)
}

// parseLexicon parses tab-separated "word\tscore" lines.
func parseLexicon(raw string) map[string]float64 {
	m := make(map[string]float64, 128)
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		word, score, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
		if err != nil {
			continue
		}
		m[strings.ToLower(strings.TrimSpace(word))] = v
	}
	return m
}

// LexiconClassifier labels text offline from an embedded polarity lexicon.
// Word scores are averaged; a negator ("not", "never", "isn't") flips the
// next scored word within a short window.
type LexiconClassifier struct{}

var _ contract.SentimentClassifier = LexiconClassifier{} // Compile-time check

// NewLexiconClassifier returns the built-in classifier.
func NewLexiconClassifier() LexiconClassifier {
	return LexiconClassifier{}
}

// Classify returns POSITIVE or NEGATIVE with a confidence in [0.5, 1], or
// NEUTRAL with zero confidence when no word carries polarity.
func (LexiconClassifier) Classify(ctx context.Context, text string) (schema.SentimentVerdict, error) {
	if err := ctx.Err(); err != nil {
		return schema.SentimentVerdict{}, err
	}
	if len(text) > maxInputBytes {
		return schema.SentimentVerdict{}, contract.NewInvalidInputError("comment", "text exceeds 1 MiB")
	}
	avg, scored := analyze(text)
	if scored == 0 || avg == 0 {
		return schema.SentimentVerdict{Label: schema.Neutral}, nil
	}

	label := schema.Positive
	if avg < 0 {
		label = schema.Negative
	}
	return schema.SentimentVerdict{
		Label:      label,
		Confidence: 0.5 + 0.5*math.Min(math.Abs(avg), 1),
	}, nil
}

// analyze returns the mean polarity of the scored words and how many there were.
func analyze(text string) (float64, int) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	var sum float64
	var scored int
	flipUntil := -1
	for i, word := range words {
		if isNegator(word) {
			flipUntil = i + negationWindow
			continue
		}
		score, ok := polarity[word]
		if !ok {
			continue
		}
		if i <= flipUntil {
			score = -score
			flipUntil = -1
		}
		sum += score
		scored++
	}
	if scored == 0 {
		return 0, 0
	}
	return sum / float64(scored), scored
}

func isNegator(word string) bool {
	if _, ok := negators[word]; ok {
		return true
	}
	return strings.HasSuffix(word, "n't")
}
