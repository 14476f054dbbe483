// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation stores the raw tensors of its forward
// pass and knows how to turn an output gradient into input gradients,
// delegating heavy kernels to the backend.
package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// Operation is one recorded forward-pass step.
type Operation interface {
	// Inputs returns the input tensors, in the order Backward returns
	// their gradients.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor.
	Output() *tensor.RawTensor

	// Backward computes input gradients from the output gradient.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
