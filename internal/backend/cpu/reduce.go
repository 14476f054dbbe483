package cpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// Sum reduces the whole tensor to a 0-d scalar.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("sum", x)
	result := tensor.MustNewRaw(tensor.Shape{}, tensor.Float32, b.device)
	var total float64
	for _, v := range x.AsFloat32() {
		total += float64(v)
	}
	result.AsFloat32()[0] = float32(total)
	return result
}

// SumDim sums along one dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim("sum_dim", x, dim, keepDim, false)
}

// MeanDim averages along one dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim("mean_dim", x, dim, keepDim, true)
}

func (b *Backend) reduceDim(op string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	checkFloat32(op, x)

	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: %s: dim %d out of range for shape %v", op, dim, shape))
	}

	outer, size, inner := 1, shape[dim], 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, s)
	}

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	xd, rd := x.AsFloat32(), result.AsFloat32()

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var total float64
			for s := 0; s < size; s++ {
				total += float64(xd[(o*size+s)*inner+in])
			}
			if mean {
				total /= float64(size)
			}
			rd[o*inner+in] = float32(total)
		}
	}
	return result
}
