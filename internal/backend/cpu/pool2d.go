package cpu

import (
	"fmt"
	"math"

	"github.com/ember-ml/ember/internal/tensor"
)

func validatePool(op string, input *tensor.RawTensor, p tensor.PoolParams) {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("cpu: %s: input must be 4D [N,C,H,W], got %v", op, input.Shape()))
	}
	if p.KernelH <= 0 || p.KernelW <= 0 || p.StrideH <= 0 || p.StrideW <= 0 {
		panic(fmt.Sprintf("cpu: %s: invalid window %+v", op, p))
	}
}

// MaxPool2D performs 2D max pooling over [N,C,H,W].
func (b *Backend) MaxPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("maxpool2d", input)
	validatePool("maxpool2d", input, p)

	is := input.Shape()
	n, c, h, w := is[0], is[1], is[2], is[3]
	outShape := tensor.Pool2DOutputShape(is, p)
	outH, outW := outShape[2], outShape[3]

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	in, out := input.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					best := float32(math.Inf(-1))
					for ki := 0; ki < p.KernelH; ki++ {
						ih := oh*p.StrideH + ki
						for kj := 0; kj < p.KernelW; kj++ {
							iw := ow*p.StrideW + kj
							if v := in[base+ih*w+iw]; v > best {
								best = v
							}
						}
					}
					out[((ni*c+ci)*outH+oh)*outW+ow] = best
				}
			}
		}
	}
	return result
}

// MaxPool2DBackward routes the output gradient to the argmax position of
// each window. The argmax is recomputed from the input; ties go to the
// first maximal element in scan order, on every backend.
func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("maxpool2d_backward", input, grad)
	validatePool("maxpool2d_backward", input, p)

	is, gs := input.Shape(), grad.Shape()
	n, c, h, w := is[0], is[1], is[2], is[3]
	outH, outW := gs[2], gs[3]

	result := tensor.MustNewRaw(is, tensor.Float32, b.device)
	in, gd, rd := input.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					best := float32(math.Inf(-1))
					bestIdx := -1
					for ki := 0; ki < p.KernelH; ki++ {
						ih := oh*p.StrideH + ki
						for kj := 0; kj < p.KernelW; kj++ {
							iw := ow*p.StrideW + kj
							if v := in[base+ih*w+iw]; v > best {
								best = v
								bestIdx = base + ih*w + iw
							}
						}
					}
					rd[bestIdx] += gd[((ni*c+ci)*outH+oh)*outW+ow]
				}
			}
		}
	}
	return result
}

// MeanPool2D performs 2D mean pooling over [N,C,H,W].
func (b *Backend) MeanPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("meanpool2d", input)
	validatePool("meanpool2d", input, p)

	is := input.Shape()
	n, c, h, w := is[0], is[1], is[2], is[3]
	outShape := tensor.Pool2DOutputShape(is, p)
	outH, outW := outShape[2], outShape[3]
	window := float32(p.KernelH * p.KernelW)

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	in, out := input.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					var acc float32
					for ki := 0; ki < p.KernelH; ki++ {
						ih := oh*p.StrideH + ki
						for kj := 0; kj < p.KernelW; kj++ {
							iw := ow*p.StrideW + kj
							acc += in[base+ih*w+iw]
						}
					}
					out[((ni*c+ci)*outH+oh)*outW+ow] = acc / window
				}
			}
		}
	}
	return result
}

// MeanPool2DBackward spreads each output gradient uniformly over its
// window.
func (b *Backend) MeanPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("meanpool2d_backward", input, grad)
	validatePool("meanpool2d_backward", input, p)

	is, gs := input.Shape(), grad.Shape()
	n, c, h, w := is[0], is[1], is[2], is[3]
	outH, outW := gs[2], gs[3]
	window := float32(p.KernelH * p.KernelW)

	result := tensor.MustNewRaw(is, tensor.Float32, b.device)
	gd, rd := grad.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					share := gd[((ni*c+ci)*outH+oh)*outW+ow] / window
					for ki := 0; ki < p.KernelH; ki++ {
						ih := oh*p.StrideH + ki
						for kj := 0; kj < p.KernelW; kj++ {
							iw := ow*p.StrideW + kj
							rd[base+ih*w+iw] += share
						}
					}
				}
			}
		}
	}
	return result
}
