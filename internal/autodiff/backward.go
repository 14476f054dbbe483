package autodiff

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// TapeBackend is satisfied by backends that carry a gradient tape.
type TapeBackend interface {
	tensor.Backend
	Tape() *GradientTape
}

// Backward seeds a gradient of ones shaped like output and walks the
// backend's tape in reverse. It returns the gradient for every tensor
// that participated in producing output, keyed by raw tensor identity.
func Backward(output *tensor.RawTensor, backend TapeBackend) map[*tensor.RawTensor]*tensor.RawTensor {
	if output.DType() != tensor.Float32 {
		panic(fmt.Sprintf("autodiff: Backward: only float32 is supported, got %s", output.DType()))
	}
	seed := tensor.MustNewRaw(output.Shape().Clone(), tensor.Float32, backend.Device())
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return backend.Tape().Backward(output, seed, backend)
}
