package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// logEvery is the epoch interval between loss log lines.
const logEvery = 10

// TrainResult summarizes one training run.
type TrainResult struct {
	RunID              string
	Version            schema.ModelVersion
	EpochLosses        []float64 // last batch loss of each epoch
	FinalLoss          float64
	ValidationLoss     *float64
	TrainExamples      int
	ValidationExamples int
	Duration           time.Duration
}

// Trainer fits calibration models with mini-batch Adam on a mean squared error loss.
type Trainer struct {
	cfg     contract.TrainingConfig
	logger  *slog.Logger
	metrics *Metrics
}

// NewTrainer creates a trainer. A nil logger discards logs and nil metrics are skipped.
func NewTrainer(cfg contract.TrainingConfig, logger *slog.Logger, metrics *Metrics) *Trainer {
	if logger == nil {
		logger = contract.NopLogger()
	}
	return &Trainer{cfg: cfg, logger: logger, metrics: metrics}
}

// Train splits ds, fits a fresh model, and saves it as the next version of name.
// Nothing is persisted when fitting fails or ctx is cancelled.
func (t *Trainer) Train(ctx context.Context, ds *Dataset, store contract.ModelStore, name string) (TrainResult, error) {
	start := time.Now()
	res, err := t.train(ctx, ds, store, name)
	res.Duration = time.Since(start)
	if t.metrics != nil {
		t.metrics.ObserveTraining(res, err)
	}
	return res, err
}

func (t *Trainer) train(ctx context.Context, ds *Dataset, store contract.ModelStore, name string) (TrainResult, error) {
	if ds == nil || ds.Len() == 0 {
		return TrainResult{}, contract.NewEmptyDatasetError("No comments found for training.")
	}
	runID := uuid.NewString()
	logger := t.logger.With("run_id", runID, "model", name)

	train, validation := ds.Split(t.cfg.ValidationSplit, t.cfg.Seed)
	logger.Info("training started",
		"examples", ds.Len(),
		"train", train.Len(),
		"validation", validation.Len(),
		"epochs", t.cfg.Epochs,
		"batch_size", t.cfg.BatchSize,
	)

	model := NewModel(t.cfg.Seed)
	model.Standardizer = ds.Standardizer

	losses, err := t.Fit(ctx, model, train)
	if err != nil {
		return TrainResult{RunID: runID}, err
	}

	res := TrainResult{
		RunID:              runID,
		EpochLosses:        losses,
		FinalLoss:          losses[len(losses)-1],
		TrainExamples:      train.Len(),
		ValidationExamples: validation.Len(),
	}
	if validation.Len() > 0 {
		vl := MeanSquaredError(model, validation)
		res.ValidationLoss = &vl
	}

	model.Training = TrainingMeta{
		RunID:          runID,
		TrainedAt:      time.Now().UTC(),
		Epochs:         t.cfg.Epochs,
		BatchSize:      t.cfg.BatchSize,
		LearningRate:   t.cfg.LearningRate,
		Seed:           t.cfg.Seed,
		Examples:       ds.Len(),
		FinalLoss:      res.FinalLoss,
		ValidationLoss: res.ValidationLoss,
	}
	payload, err := model.Marshal()
	if err != nil {
		return res, fmt.Errorf("encode model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	version, err := store.Save(ctx, name, payload)
	if err != nil {
		return res, fmt.Errorf("save model %s: %w", name, err)
	}
	res.Version = version
	logger.Info("model saved", "version", version.Version, "bytes", version.SizeBytes, "final_loss", res.FinalLoss)
	return res, nil
}

// Fit trains model in place on ds and returns the last batch loss of every epoch.
// Batches are taken in dataset order; the final partial batch is included.
func (t *Trainer) Fit(ctx context.Context, model *Model, ds *Dataset) ([]float64, error) {
	if t.cfg.Epochs <= 0 || t.cfg.BatchSize <= 0 {
		return nil, contract.NewConfigurationError(fmt.Sprintf("epochs (%d) and batch size (%d) must be positive", t.cfg.Epochs, t.cfg.BatchSize), nil)
	}
	if ds.Len() == 0 {
		return nil, contract.NewEmptyDatasetError("no training examples after the validation split")
	}
	inputs, targets := ds.Inputs(), ds.Targets()
	grads := newGradients(model)
	opt := newAdam(model, t.cfg.LearningRate)
	losses := make([]float64, 0, t.cfg.Epochs)

	for epoch := range t.cfg.Epochs {
		var loss float64
		for i := 0; i < len(inputs); i += t.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := min(i+t.cfg.BatchSize, len(inputs))
			grads.zero()
			loss = backward(model, inputs[i:end], targets[i:end], grads)
			opt.apply(model, grads)
		}
		losses = append(losses, loss)
		if epoch%logEvery == 0 {
			t.logger.Info(fmt.Sprintf("Epoch [%d/%d], Loss: %.4f", epoch+1, t.cfg.Epochs, loss),
				"epoch", epoch+1, "epochs", t.cfg.Epochs, "loss", loss)
		}
	}
	return losses, nil
}

// backward accumulates the gradient of the batch MSE into g and returns the loss.
func backward(m *Model, xs, ys [][2]float64, g *gradients) float64 {
	n := float64(len(xs))
	outputs := float64(Architecture[len(Architecture)-1])
	last := len(m.Layers) - 1
	var loss float64

	for s := range xs {
		tr := m.forwardTrace(xs[s])
		out := tr.acts[last+1]

		delta := make([]float64, len(out))
		for j := range out {
			diff := out[j] - ys[s][j]
			loss += diff * diff
			// Clamp passes gradient only inside its bounds.
			z := tr.pre[last][j]
			if z >= m.Bounds.lo(j) && z <= m.Bounds.hi(j) {
				delta[j] = 2 * diff / (n * outputs)
			}
		}

		for k := last; k >= 0; k-- {
			l := m.Layers[k]
			in := tr.acts[k]
			gw, gb := g.weights[k], g.biases[k]
			var prev []float64
			if k > 0 {
				prev = make([]float64, l.In)
			}
			for o, d := range delta {
				if d == 0 {
					continue
				}
				gb[o] += d
				row := o * l.In
				for i := range l.In {
					gw[row+i] += d * in[i]
					if prev != nil {
						prev[i] += l.Weights[row+i] * d
					}
				}
			}
			if k > 0 {
				for i, z := range tr.pre[k-1] {
					if z <= 0 {
						prev[i] = 0
					}
				}
				delta = prev
			}
		}
	}
	return loss / (n * outputs)
}

// MeanSquaredError evaluates model on ds without updating it.
func MeanSquaredError(m *Model, ds *Dataset) float64 {
	if ds.Len() == 0 {
		return 0
	}
	inputs, targets := ds.Inputs(), ds.Targets()
	var sum float64
	for i, x := range inputs {
		out := m.Forward(x)
		for j := range out {
			d := out[j] - targets[i][j]
			sum += d * d
		}
	}
	return sum / float64(len(inputs)*len(targets[0]))
}
