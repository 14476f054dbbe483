package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// reduceToShape sums grad over the dimensions that were broadcast when
// producing it, so the result matches the original operand shape.
func reduceToShape(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	out := grad
	// Leading dimensions the operand never had.
	for len(out.Shape()) > len(target) {
		out = backend.SumDim(out, 0, false)
	}
	// Dimensions of size 1 that were stretched.
	for d := range target {
		if target[d] == 1 && out.Shape()[d] != 1 {
			out = backend.SumDim(out, d, true)
		}
	}
	return out
}

// fill creates a tensor of the given shape with every element set to v,
// tagged with the backend's device.
func fill(shape tensor.Shape, v float32, backend tensor.Backend) *tensor.RawTensor {
	out := tensor.MustNewRaw(shape, tensor.Float32, backend.Device())
	data := out.AsFloat32()
	for i := range data {
		data[i] = v
	}
	return out
}
