package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ember-ml/ember/internal/tensor"
)

// SELU constants used by AlphaDropout.
const (
	seluAlpha = 1.6732632423543772
	seluScale = 1.0507009873554805
)

// Dropout randomly zeroes elements with probability p during training and
// scales survivors by 1/(1-p), keeping the expected activation unchanged.
// In eval mode it is the identity.
//
// The mask is drawn on the host and applied with an element-wise multiply,
// so the gradient of surviving elements flows through the tape on any
// backend.
type Dropout[B tensor.Backend] struct {
	p       float64
	eval    bool
	rng     *rand.Rand
	backend B
}

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand, backend B) (*Dropout[B], error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("nn: dropout: probability %v out of range [0, 1)", p)
	}
	return &Dropout[B]{p: p, rng: rng, backend: backend}, nil
}

// SetEval switches between training (mask applied) and eval (identity).
func (d *Dropout[B]) SetEval(eval bool) { d.eval = eval }

// Forward applies the dropout mask, or passes through in eval mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if d.eval || d.p == 0 {
		return input
	}
	keep := 1.0 - d.p
	scale := float32(1.0 / keep)
	mask := constTensor(input.Shape(), d.backend, func() float32 {
		if d.rng.Float64() < keep {
			return scale
		}
		return 0
	})
	return input.Mul(mask)
}

// Parameters returns an empty slice; dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (d *Dropout[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for dropout layers.
func (d *Dropout[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// AlphaDropout is the SELU-companion dropout: dropped elements are set to
// the negative saturation value alpha' = -scale*alpha instead of zero, and
// the result is rescaled so mean and variance are preserved. In eval mode
// it is the identity.
type AlphaDropout[B tensor.Backend] struct {
	p       float64
	eval    bool
	rng     *rand.Rand
	backend B
}

// NewAlphaDropout creates an alpha dropout layer with drop probability p
// in [0, 1).
func NewAlphaDropout[B tensor.Backend](p float64, rng *rand.Rand, backend B) (*AlphaDropout[B], error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("nn: alphadropout: probability %v out of range [0, 1)", p)
	}
	return &AlphaDropout[B]{p: p, rng: rng, backend: backend}, nil
}

// SetEval switches between training (mask applied) and eval (identity).
func (d *AlphaDropout[B]) SetEval(eval bool) { d.eval = eval }

// Forward applies alpha dropout, or passes through in eval mode.
//
// output = a * (x*mask + alpha'*(1-mask)) + b, with a and b chosen so the
// output keeps zero mean and unit variance for SELU activations.
func (d *AlphaDropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if d.eval || d.p == 0 {
		return input
	}
	keep := 1.0 - d.p
	alphaPrime := -seluScale * seluAlpha
	a := 1.0 / math.Sqrt(keep+alphaPrime*alphaPrime*keep*d.p)
	b := -a * alphaPrime * d.p

	// One host draw per element decides both the keep mask and the
	// saturation fill, so the two constant tensors stay consistent.
	shape := input.Shape()
	n := shape.NumElements()
	kept := make([]bool, n)
	for i := range kept {
		kept[i] = d.rng.Float64() < keep
	}
	i := 0
	mask := constTensor(shape, d.backend, func() float32 {
		v := float32(0)
		if kept[i] {
			v = 1
		}
		i++
		return v
	})
	j := 0
	fill := constTensor(shape, d.backend, func() float32 {
		v := float32(alphaPrime)
		if kept[j] {
			v = 0
		}
		j++
		return v
	})

	return input.Mul(mask).Add(fill).MulScalar(a).AddScalar(b)
}

// Parameters returns an empty slice; dropout has no trainable parameters.
func (d *AlphaDropout[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (d *AlphaDropout[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for dropout layers.
func (d *AlphaDropout[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// constTensor builds a host-filled constant tensor on the backend's device.
func constTensor[B tensor.Backend](shape tensor.Shape, backend B, next func() float32) *tensor.Tensor[float32, B] {
	raw := tensor.MustNewRaw(shape.Clone(), tensor.Float32, backend.Device())
	data := raw.AsFloat32()
	for i := range data {
		data[i] = next()
	}
	return tensor.New[float32, B](raw, backend)
}
