package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// GroupNorm splits the channels of [N,C,H,W] input into groups and
// normalizes each (sample, group) slice to zero mean and unit variance,
// then applies a learned per-channel affine transform.
//
// GroupNorm with groups == 1 covers all channels at once and with
// groups == C reduces to InstanceNorm2D.
type GroupNorm[B tensor.Backend] struct {
	numGroups   int
	numFeatures int
	eps         float64
	weight      *Parameter[B] // [C], initialized to ones
	bias        *Parameter[B] // [C], initialized to zeros
	backend     B
}

// NewGroupNorm creates a group normalization layer. The group count must
// divide the channel count. A zero eps defaults to 1e-5.
func NewGroupNorm[B tensor.Backend](numGroups, numFeatures int, eps float64, backend B) (*GroupNorm[B], error) {
	if numGroups <= 0 || numFeatures <= 0 {
		return nil, fmt.Errorf("nn: groupnorm: invalid groups=%d, features=%d", numGroups, numFeatures)
	}
	if numFeatures%numGroups != 0 {
		return nil, fmt.Errorf("nn: groupnorm: groups %d must divide channels %d", numGroups, numFeatures)
	}
	if eps < 0 {
		return nil, fmt.Errorf("nn: groupnorm: invalid eps %v", eps)
	}
	if eps == 0 {
		eps = defaultNormEps
	}
	return &GroupNorm[B]{
		numGroups:   numGroups,
		numFeatures: numFeatures,
		eps:         eps,
		weight:      NewParameter("weight", Ones(tensor.Shape{numFeatures}, backend)),
		bias:        NewParameter("bias", Zeros(tensor.Shape{numFeatures}, backend)),
		backend:     backend,
	}, nil
}

// Forward normalizes each channel group per sample.
func (g *GroupNorm[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("nn: groupnorm: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != g.numFeatures {
		panic(fmt.Sprintf("nn: groupnorm: input channels %d != expected %d", shape[1], g.numFeatures))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	groupSize := (c / g.numGroups) * h * w

	// Flatten each (sample, group) slice to one row.
	x := input.Reshape(n*g.numGroups, groupSize)
	mean := x.MeanDim(1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(1, true)
	normed := centered.Mul(variance.AddScalar(g.eps).Rsqrt()).Reshape(n, c, h, w)

	return normed.Mul(g.weight.Tensor().Reshape(1, c, 1, 1)).Add(g.bias.Tensor().Reshape(1, c, 1, 1))
}

// Parameters returns the affine parameters [weight, bias].
func (g *GroupNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{g.weight, g.bias}
}

// StateDict returns a map of parameter names to raw tensors.
func (g *GroupNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(g.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (g *GroupNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(g.Parameters(), stateDict)
}
