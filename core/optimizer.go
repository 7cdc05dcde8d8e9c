package core

import "math"

// Adam hyperparameters besides the learning rate.
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// gradients mirrors the model's parameter layout.
type gradients struct {
	weights [][]float64
	biases  [][]float64
}

func newGradients(m *Model) *gradients {
	g := &gradients{}
	for _, l := range m.Layers {
		g.weights = append(g.weights, make([]float64, len(l.Weights)))
		g.biases = append(g.biases, make([]float64, len(l.Biases)))
	}
	return g
}

func (g *gradients) zero() {
	for k := range g.weights {
		clear(g.weights[k])
		clear(g.biases[k])
	}
}

// adam keeps first and second moment estimates per parameter.
type adam struct {
	lr   float64
	step int
	m, v *gradients
}

func newAdam(model *Model, lr float64) *adam {
	return &adam{lr: lr, m: newGradients(model), v: newGradients(model)}
}

// apply performs one bias-corrected update of every parameter.
func (a *adam) apply(model *Model, g *gradients) {
	a.step++
	bc1 := 1 - math.Pow(adamBeta1, float64(a.step))
	bc2 := 1 - math.Pow(adamBeta2, float64(a.step))
	for k, l := range model.Layers {
		update(l.Weights, g.weights[k], a.m.weights[k], a.v.weights[k], a.lr, bc1, bc2)
		update(l.Biases, g.biases[k], a.m.biases[k], a.v.biases[k], a.lr, bc1, bc2)
	}
}

func update(params, grad, m, v []float64, lr, bc1, bc2 float64) {
	for i, gi := range grad {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*gi
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*gi*gi
		mHat := m[i] / bc1
		vHat := v[i] / bc2
		params[i] -= lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
	}
}
