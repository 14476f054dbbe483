package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// InstanceNorm2D normalizes [N,C,H,W] input over the spatial dimensions,
// independently per sample and per channel, with an optional per-channel
// affine transform.
type InstanceNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float64
	weight      *Parameter[B] // [C] or nil
	bias        *Parameter[B] // [C] or nil
	backend     B
}

// NewInstanceNorm2D creates an instance normalization layer over C
// channels. A zero eps defaults to 1e-5.
func NewInstanceNorm2D[B tensor.Backend](numFeatures int, eps float64, affine bool, backend B) (*InstanceNorm2D[B], error) {
	if numFeatures <= 0 {
		return nil, fmt.Errorf("nn: instancenorm2d: invalid feature count %d", numFeatures)
	}
	if eps < 0 {
		return nil, fmt.Errorf("nn: instancenorm2d: invalid eps %v", eps)
	}
	if eps == 0 {
		eps = defaultNormEps
	}

	layer := &InstanceNorm2D[B]{numFeatures: numFeatures, eps: eps, backend: backend}
	if affine {
		layer.weight = NewParameter("weight", Ones(tensor.Shape{numFeatures}, backend))
		layer.bias = NewParameter("bias", Zeros(tensor.Shape{numFeatures}, backend))
	}
	return layer, nil
}

// Forward normalizes each (sample, channel) plane over H and W.
func (n *InstanceNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("nn: instancenorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != n.numFeatures {
		panic(fmt.Sprintf("nn: instancenorm2d: input channels %d != expected %d", shape[1], n.numFeatures))
	}

	mean := input.MeanDim(2, true).MeanDim(3, true) // [N,C,1,1]
	centered := input.Sub(mean)
	variance := centered.Mul(centered).MeanDim(2, true).MeanDim(3, true)
	normed := centered.Mul(variance.AddScalar(n.eps).Rsqrt())

	if n.weight == nil {
		return normed
	}
	c := n.numFeatures
	return normed.Mul(n.weight.Tensor().Reshape(1, c, 1, 1)).Add(n.bias.Tensor().Reshape(1, c, 1, 1))
}

// Parameters returns the affine parameters, or an empty slice without
// affine.
func (n *InstanceNorm2D[B]) Parameters() []*Parameter[B] {
	if n.weight == nil {
		return nil
	}
	return []*Parameter[B]{n.weight, n.bias}
}

// StateDict returns a map of parameter names to raw tensors.
func (n *InstanceNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(n.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (n *InstanceNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(n.Parameters(), stateDict)
}
