package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

const defaultNormEps = 1e-5

// LayerNorm normalizes each sample over its trailing normShape dimensions
// to zero mean and unit variance, then applies a learned per-element
// affine transform.
//
// For input [d1, ..., dk, n1, ..., nm] with normShape [n1, ..., nm], the
// statistics are computed independently for every [n1, ..., nm] slice.
type LayerNorm[B tensor.Backend] struct {
	normShape tensor.Shape
	eps       float64
	weight    *Parameter[B] // normShape, initialized to ones
	bias      *Parameter[B] // normShape, initialized to zeros
	backend   B
}

// NewLayerNorm creates a layer normalization layer over the given
// trailing shape. A zero eps defaults to 1e-5.
func NewLayerNorm[B tensor.Backend](normShape tensor.Shape, eps float64, backend B) (*LayerNorm[B], error) {
	if err := normShape.Validate(); err != nil {
		return nil, fmt.Errorf("nn: layernorm: %w", err)
	}
	if eps < 0 {
		return nil, fmt.Errorf("nn: layernorm: invalid eps %v", eps)
	}
	if eps == 0 {
		eps = defaultNormEps
	}
	return &LayerNorm[B]{
		normShape: normShape.Clone(),
		eps:       eps,
		weight:    NewParameter("weight", Ones(normShape.Clone(), backend)),
		bias:      NewParameter("bias", Zeros(normShape.Clone(), backend)),
		backend:   backend,
	}, nil
}

// Forward normalizes the input and applies the affine transform.
func (l *LayerNorm[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < len(l.normShape) {
		panic(fmt.Sprintf("nn: layernorm: input rank %d below normalized rank %d", len(shape), len(l.normShape)))
	}
	split := len(shape) - len(l.normShape)
	for i, n := range l.normShape {
		if shape[split+i] != n {
			panic(fmt.Sprintf("nn: layernorm: input shape %v does not end with %v", shape, l.normShape))
		}
	}

	prefix := 1
	for _, d := range shape[:split] {
		prefix *= d
	}
	m := l.normShape.NumElements()

	// Flatten to [prefix, m] so a single-axis reduction covers all
	// normalized dimensions at once.
	x := input.Reshape(prefix, m)
	mean := x.MeanDim(1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(1, true)
	normed := centered.Mul(variance.AddScalar(l.eps).Rsqrt())

	out := normed.Reshape(shape...)
	// weight and bias have the trailing shape, so they broadcast as-is.
	return out.Mul(l.weight.Tensor()).Add(l.bias.Tensor())
}

// Parameters returns the affine parameters [weight, bias].
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// StateDict returns a map of parameter names to raw tensors.
func (l *LayerNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(l.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (l *LayerNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(l.Parameters(), stateDict)
}
