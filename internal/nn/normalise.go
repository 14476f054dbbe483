package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// Normalise shifts and scales x to zero mean and unit standard deviation
// along the given dimensions, or over the whole tensor when no dimension
// is given. Unlike the normalization layers it is a pure function with no
// parameters:
//
//	out = (x - mean) / (std + eps)
//
// The eps guards against division by zero on constant slices; it is added
// to the standard deviation, not the variance.
func Normalise[B tensor.Backend](x *tensor.Tensor[float32, B], dims ...int) *tensor.Tensor[float32, B] {
	rank := len(x.Shape())
	if len(dims) == 0 {
		dims = make([]int, rank)
		for i := range dims {
			dims[i] = i
		}
	}
	for _, d := range dims {
		if d < 0 || d >= rank {
			panic(fmt.Sprintf("nn: normalise: dimension %d out of range for rank %d", d, rank))
		}
	}

	mean := x
	for _, d := range dims {
		mean = mean.MeanDim(d, true)
	}
	centered := x.Sub(mean)

	variance := centered.Mul(centered)
	for _, d := range dims {
		variance = variance.MeanDim(d, true)
	}
	return centered.Div(variance.Sqrt().AddScalar(defaultNormEps))
}
