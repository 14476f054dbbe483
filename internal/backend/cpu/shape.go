package cpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// Reshape returns a tensor with a new shape and the same elements.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("cpu: reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cpu: reshape: cannot reshape %v into %v", t.Shape(), newShape))
	}
	result := tensor.MustNewRaw(newShape, t.DType(), b.device)
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. With no axes, all
// dimensions are reversed.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	checkFloat32("transpose", t)

	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("cpu: transpose: %d axes for %dD tensor", len(axes), ndim))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	td, rd := t.AsFloat32(), result.AsFloat32()
	inStrides := shape.ComputeStrides()

	idx := make([]int, ndim)
	for i := range rd {
		src := 0
		for d, ax := range axes {
			src += idx[d] * inStrides[ax]
		}
		rd[i] = td[src]
		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result
}
