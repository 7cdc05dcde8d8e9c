package core

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// ModelFormat is bumped whenever the serialized layout changes.
const ModelFormat = 1

// Architecture lists the layer widths of the calibration network.
var Architecture = []int{2, 128, 64, 32, 2}

// Bounds limits the two model outputs.
type Bounds struct {
	ImportanceMin float64 `json:"importance_min"`
	ImportanceMax float64 `json:"importance_max"`
	QualityMin    float64 `json:"quality_min"`
	QualityMax    float64 `json:"quality_max"`
}

// DefaultBounds matches the heuristic clamp so both paths share one scale.
var DefaultBounds = Bounds{
	ImportanceMin: schema.MinImportance,
	ImportanceMax: schema.MaxImportance,
	QualityMin:    schema.MinQuality,
	QualityMax:    schema.MaxQuality,
}

func (b Bounds) lo(j int) float64 {
	if j == 0 {
		return b.ImportanceMin
	}
	return b.QualityMin
}

func (b Bounds) hi(j int) float64 {
	if j == 0 {
		return b.ImportanceMax
	}
	return b.QualityMax
}

// Layer is a dense layer with row-major weights: W[o*In+i].
type Layer struct {
	In      int       `json:"in"`
	Out     int       `json:"out"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// TrainingMeta records how a model was produced.
type TrainingMeta struct {
	RunID          string    `json:"run_id,omitempty"`
	TrainedAt      time.Time `json:"trained_at"`
	Epochs         int       `json:"epochs"`
	BatchSize      int       `json:"batch_size"`
	LearningRate   float64   `json:"learning_rate"`
	Seed           uint64    `json:"seed"`
	Examples       int       `json:"examples"`
	FinalLoss      float64   `json:"final_loss"`
	ValidationLoss *float64  `json:"validation_loss,omitempty"`
}

// Model is the calibration network together with the input statistics it was trained on.
type Model struct {
	Format       int          `json:"format"`
	ID           string       `json:"id"`
	Layers       []*Layer     `json:"layers"`
	Bounds       Bounds       `json:"bounds"`
	Standardizer Standardizer `json:"standardizer"`
	Training     TrainingMeta `json:"training"`
}

// NewModel initializes the network the way torch.nn.Linear does: weights and
// biases drawn from U(-1/sqrt(fan_in), 1/sqrt(fan_in)). The same seed always
// yields the same parameters.
func NewModel(seed uint64) *Model {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	m := &Model{
		Format:       ModelFormat,
		ID:           uuid.NewString(),
		Bounds:       DefaultBounds,
		Standardizer: Standardizer{Std: [2]float64{1, 1}},
	}
	for k := 0; k+1 < len(Architecture); k++ {
		in, out := Architecture[k], Architecture[k+1]
		bound := 1 / math.Sqrt(float64(in))
		l := &Layer{In: in, Out: out, Weights: make([]float64, in*out), Biases: make([]float64, out)}
		for i := range l.Weights {
			l.Weights[i] = (rng.Float64()*2 - 1) * bound
		}
		for i := range l.Biases {
			l.Biases[i] = (rng.Float64()*2 - 1) * bound
		}
		m.Layers = append(m.Layers, l)
	}
	// Output biases start mid-range so the clamp passes gradient from the first batch.
	out := m.Layers[len(m.Layers)-1]
	for j := range out.Biases {
		out.Biases[j] = (m.Bounds.lo(j) + m.Bounds.hi(j)) / 2
	}
	return m
}

// trace keeps per-layer pre-activations and outputs for backpropagation.
// acts[0] is the input; acts[k+1] is the output of layer k after its activation.
type trace struct {
	pre  [][]float64
	acts [][]float64
}

func (m *Model) forwardTrace(x [2]float64) trace {
	tr := trace{
		pre:  make([][]float64, len(m.Layers)),
		acts: make([][]float64, len(m.Layers)+1),
	}
	tr.acts[0] = []float64{x[0], x[1]}
	last := len(m.Layers) - 1
	for k, l := range m.Layers {
		in := tr.acts[k]
		z := make([]float64, l.Out)
		for o := range l.Out {
			sum := l.Biases[o]
			row := l.Weights[o*l.In : (o+1)*l.In]
			for i, w := range row {
				sum += w * in[i]
			}
			z[o] = sum
		}
		tr.pre[k] = z
		a := make([]float64, l.Out)
		if k == last {
			for j := range a {
				a[j] = clampRange(z[j], m.Bounds.lo(j), m.Bounds.hi(j))
			}
		} else {
			for j, v := range z {
				a[j] = math.Max(v, 0)
			}
		}
		tr.acts[k+1] = a
	}
	return tr
}

// Forward runs one already standardized input through the network.
func (m *Model) Forward(x [2]float64) [2]float64 {
	out := m.forwardTrace(x).acts[len(m.Layers)]
	return [2]float64{out[0], out[1]}
}

// Predict standardizes a raw heuristic pair with the stored statistics and runs the network.
func (m *Model) Predict(raw [2]float64) [2]float64 {
	return m.Forward(m.Standardizer.Apply(raw))
}

// ParamCount returns the number of trainable parameters.
func (m *Model) ParamCount() int {
	n := 0
	for _, l := range m.Layers {
		n += len(l.Weights) + len(l.Biases)
	}
	return n
}

// Marshal serializes the model artifact.
func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalModel decodes and validates a model artifact.
func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, contract.NewConfigurationError("corrupt model artifact", err)
	}
	if err := m.validate(); err != nil {
		return nil, contract.NewConfigurationError("invalid model artifact", err)
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.Format != ModelFormat {
		return fmt.Errorf("unsupported format %d (expected %d)", m.Format, ModelFormat)
	}
	sizes := []int{}
	for k, l := range m.Layers {
		if l == nil {
			return fmt.Errorf("layer %d is missing", k)
		}
		if k == 0 {
			sizes = append(sizes, l.In)
		} else if l.In != m.Layers[k-1].Out {
			return fmt.Errorf("layer %d expects %d inputs but previous layer has %d outputs", k, l.In, m.Layers[k-1].Out)
		}
		sizes = append(sizes, l.Out)
		if len(l.Weights) != l.In*l.Out || len(l.Biases) != l.Out {
			return fmt.Errorf("layer %d has %d weights and %d biases for shape %dx%d", k, len(l.Weights), len(l.Biases), l.In, l.Out)
		}
	}
	if !slices.Equal(sizes, Architecture) {
		return fmt.Errorf("layer sizes %v do not match %v", sizes, Architecture)
	}
	return nil
}
