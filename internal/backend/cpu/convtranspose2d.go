package cpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

func validateConvTrans(op string, input, kernel *tensor.RawTensor, p tensor.ConvTransParams) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("cpu: %s: input and kernel must be 4D, got %v and %v", op, is, ks))
	}
	if p.Groups < 1 {
		panic(fmt.Sprintf("cpu: %s: groups must be >= 1, got %d", op, p.Groups))
	}
	if is[1] != ks[0] {
		panic(fmt.Sprintf("cpu: %s: input channels %d != kernel channels %d", op, is[1], ks[0]))
	}
	if is[1]%p.Groups != 0 {
		panic(fmt.Sprintf("cpu: %s: input channels %d not divisible by groups %d", op, is[1], p.Groups))
	}
}

// ConvTranspose2D performs grouped 2D transposed convolution.
//
// Input [N, C_in, H, W], kernel [C_in, C_out/g, KH, KW],
// output [N, C_out, (H-1)*s - 2p + KH, (W-1)*s - 2p + KW].
func (b *Backend) ConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d", input, kernel)
	validateConvTrans("conv_transpose2d", input, kernel, p)

	is, ks := input.Shape(), kernel.Shape()
	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOutG, kh, kw := ks[1], ks[2], ks[3]
	cInG := cIn / p.Groups
	outShape := tensor.ConvTranspose2DOutputShape(is, ks, p)
	cOut, outH, outW := outShape[1], outShape[2], outShape[3]

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	in, kr, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()

	parallel.ForBatch(n, cOut, func(ni, co int) {
		g := co / cOutG
		cog := co % cOutG
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				var acc float32
				for ki := 0; ki < kh; ki++ {
					ihNum := oh + p.PadH - ki
					if ihNum < 0 || ihNum%p.StrideH != 0 {
						continue
					}
					ih := ihNum / p.StrideH
					if ih >= h {
						continue
					}
					for kj := 0; kj < kw; kj++ {
						iwNum := ow + p.PadW - kj
						if iwNum < 0 || iwNum%p.StrideW != 0 {
							continue
						}
						iw := iwNum / p.StrideW
						if iw >= w {
							continue
						}
						for ci := g * cInG; ci < (g+1)*cInG; ci++ {
							acc += in[((ni*cIn+ci)*h+ih)*w+iw] *
								kr[((ci*cOutG+cog)*kh+ki)*kw+kj]
						}
					}
				}
				out[((ni*cOut+co)*outH+oh)*outW+ow] = acc
			}
		}
	}, b.par)
	return result
}

// ConvTranspose2DInputBackward computes the transposed-convolution
// gradient with respect to the input. This is a plain strided
// cross-correlation of the output gradient with the kernel.
func (b *Backend) ConvTranspose2DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d_input_backward", input, kernel, grad)
	validateConvTrans("conv_transpose2d_input_backward", input, kernel, p)

	is, ks, gs := input.Shape(), kernel.Shape(), grad.Shape()
	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOutG, kh, kw := ks[1], ks[2], ks[3]
	cOut, outH, outW := gs[1], gs[2], gs[3]

	result := tensor.MustNewRaw(is, tensor.Float32, b.device)
	gd, kr, rd := grad.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < cIn; ci++ {
			g := ci / (cIn / p.Groups)
			for ih := 0; ih < h; ih++ {
				for iw := 0; iw < w; iw++ {
					var acc float32
					for cog := 0; cog < cOutG; cog++ {
						co := g*cOutG + cog
						for ki := 0; ki < kh; ki++ {
							oh := ih*p.StrideH - p.PadH + ki
							if oh < 0 || oh >= outH {
								continue
							}
							for kj := 0; kj < kw; kj++ {
								ow := iw*p.StrideW - p.PadW + kj
								if ow < 0 || ow >= outW {
									continue
								}
								acc += gd[((ni*cOut+co)*outH+oh)*outW+ow] *
									kr[((ci*cOutG+cog)*kh+ki)*kw+kj]
							}
						}
					}
					rd[((ni*cIn+ci)*h+ih)*w+iw] = acc
				}
			}
		}
	}
	return result
}

// ConvTranspose2DKernelBackward computes the transposed-convolution
// gradient with respect to the kernel.
func (b *Backend) ConvTranspose2DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d_kernel_backward", input, kernel, grad)
	validateConvTrans("conv_transpose2d_kernel_backward", input, kernel, p)

	is, ks, gs := input.Shape(), kernel.Shape(), grad.Shape()
	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOutG, kh, kw := ks[1], ks[2], ks[3]
	cOut, outH, outW := gs[1], gs[2], gs[3]
	cInG := cIn / p.Groups

	result := tensor.MustNewRaw(ks, tensor.Float32, b.device)
	in, gd, rd := input.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	for ci := 0; ci < cIn; ci++ {
		g := ci / cInG
		for cog := 0; cog < cOutG; cog++ {
			co := g*cOutG + cog
			for ki := 0; ki < kh; ki++ {
				for kj := 0; kj < kw; kj++ {
					var acc float32
					for ni := 0; ni < n; ni++ {
						for ih := 0; ih < h; ih++ {
							oh := ih*p.StrideH - p.PadH + ki
							if oh < 0 || oh >= outH {
								continue
							}
							for iw := 0; iw < w; iw++ {
								ow := iw*p.StrideW - p.PadW + kj
								if ow < 0 || ow >= outW {
									continue
								}
								acc += in[((ni*cIn+ci)*h+ih)*w+iw] *
									gd[((ni*cOut+co)*outH+oh)*outW+ow]
							}
						}
					}
					rd[((ci*cOutG+cog)*kh+ki)*kw+kj] = acc
				}
			}
		}
	}
	return result
}
