package core

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Example is one training row. Features hold the unstandardized heuristic pair.
type Example struct {
	Comment  string
	Features [2]float64
	Target   [2]float64
	Source   schema.ExampleSource
}

// Standardizer holds the column statistics used to standardize model inputs.
type Standardizer struct {
	Mean [2]float64 `json:"mean"`
	Std  [2]float64 `json:"std"`
}

// FitStandardizer computes the column mean and population standard deviation.
func FitStandardizer(rows [][2]float64) Standardizer {
	var st Standardizer
	if len(rows) == 0 {
		st.Std = [2]float64{1, 1}
		return st
	}
	n := float64(len(rows))
	for _, r := range rows {
		st.Mean[0] += r[0]
		st.Mean[1] += r[1]
	}
	st.Mean[0] /= n
	st.Mean[1] /= n
	for _, r := range rows {
		for j := range 2 {
			d := r[j] - st.Mean[j]
			st.Std[j] += d * d
		}
	}
	st.Std[0] = math.Sqrt(st.Std[0] / n)
	st.Std[1] = math.Sqrt(st.Std[1] / n)
	return st
}

// Apply standardizes one row. A column without spread is only centered.
func (s Standardizer) Apply(row [2]float64) [2]float64 {
	var out [2]float64
	for j := range 2 {
		div := s.Std[j]
		if div == 0 || math.IsNaN(div) {
			div = 1
		}
		out[j] = (row[j] - s.Mean[j]) / div
	}
	return out
}

// Dataset is an assembled batch of examples with the statistics fitted over it.
type Dataset struct {
	Examples     []Example
	Standardizer Standardizer
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Examples)
}

// Inputs returns the standardized feature rows.
func (d *Dataset) Inputs() [][2]float64 {
	out := make([][2]float64, len(d.Examples))
	for i, ex := range d.Examples {
		out[i] = d.Standardizer.Apply(ex.Features)
	}
	return out
}

// Targets returns the target rows.
func (d *Dataset) Targets() [][2]float64 {
	out := make([][2]float64, len(d.Examples))
	for i, ex := range d.Examples {
		out[i] = ex.Target
	}
	return out
}

// CountSource returns how many examples came from src.
func (d *Dataset) CountSource(src schema.ExampleSource) int {
	n := 0
	for _, ex := range d.Examples {
		if ex.Source == src {
			n++
		}
	}
	return n
}

// Split shuffles the examples with a seeded source and holds out ratio of them.
// The held-out count is rounded up. Both halves share the original standardizer.
// When holding out would leave nothing to train on, validation is empty.
func (d *Dataset) Split(ratio float64, seed uint64) (train, validation *Dataset) {
	n := len(d.Examples)
	nVal := int(math.Ceil(ratio * float64(n)))
	if ratio <= 0 || nVal >= n {
		return &Dataset{Examples: d.Examples, Standardizer: d.Standardizer},
			&Dataset{Standardizer: d.Standardizer}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	val := make([]Example, 0, nVal)
	tr := make([]Example, 0, n-nVal)
	for i, idx := range perm {
		if i < nVal {
			val = append(val, d.Examples[idx])
		} else {
			tr = append(tr, d.Examples[idx])
		}
	}
	return &Dataset{Examples: tr, Standardizer: d.Standardizer},
		&Dataset{Examples: val, Standardizer: d.Standardizer}
}

// BuildDataset scores every comment and feedback label into training examples.
//
// Comments use their own heuristic as target and include the site rating blend.
// Feedback uses the human labels as target and never blends a rating.
// Without comments there is nothing to calibrate against, even if feedback exists.
func (s *Scorer) BuildDataset(ctx context.Context, comments []schema.CommentRecord, feedback []schema.FeedbackRecord) (*Dataset, error) {
	if len(comments) == 0 {
		return nil, contract.NewEmptyDatasetError("No comments found for training.")
	}

	examples := make([]Example, 0, len(comments)+len(feedback))
	for _, c := range comments {
		h, err := s.Score(ctx, c.Text, c.WebsiteRating)
		if err != nil {
			return nil, err
		}
		pair := [2]float64{h.Importance, h.Quality}
		examples = append(examples, Example{Comment: c.Text, Features: pair, Target: pair, Source: schema.CommentSource})
	}
	for _, f := range feedback {
		h, err := s.Score(ctx, f.Text, nil)
		if err != nil {
			return nil, err
		}
		examples = append(examples, Example{
			Comment:  f.Text,
			Features: [2]float64{h.Importance, h.Quality},
			Target:   [2]float64{f.TrueImportance, f.TrueQuality},
			Source:   schema.FeedbackSource,
		})
	}

	features := make([][2]float64, len(examples))
	for i, ex := range examples {
		features[i] = ex.Features
	}
	return &Dataset{Examples: examples, Standardizer: FitStandardizer(features)}, nil
}
