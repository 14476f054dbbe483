// Package nn implements neural network layers for the Ember ML framework.
//
// The package provides the layer zoo exercised by the parity harness:
//   - Linear: fully connected layer
//   - Conv2D / ConvTranspose2D: convolution family
//   - MaxPool2D, MeanPool2D and their adaptive variants
//   - Dropout, AlphaDropout: stochastic regularizers
//   - LayerNorm, BatchNorm2D, InstanceNorm2D, GroupNorm: normalization layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
// Type parameter B must satisfy the tensor.Backend interface; instantiating
// with B = tensor.Backend itself lets the same layer code run on any backend
// chosen at runtime.
package nn

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every module must implement:
//   - Forward: compute output from input
//   - Parameters: return all trainable parameters, each with a stable name
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}

// StatefulModule is a Module whose parameters can be exported and
// re-imported by name. Every layer in this package implements it; it is
// what lets a layer built on one backend be mirrored onto another.
type StatefulModule[B tensor.Backend] interface {
	Module[B]

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary.
	// Shapes and dtypes must match the layer's own parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
