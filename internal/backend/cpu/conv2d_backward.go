package cpu

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// Conv2DInputBackward computes the convolution gradient with respect to
// the input. Gather formulation: every input element sums the output
// gradients of the windows that read it.
func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, p ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d_input_backward", input, kernel, grad)
	validateConv("conv2d_input_backward", input, kernel, p.Groups)

	is, ks, gs := input.Shape(), kernel.Shape(), grad.Shape()
	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOut, cInG, kh, kw := ks[0], ks[1], ks[2], ks[3]
	outH, outW := gs[2], gs[3]
	cOutG := cOut / p.Groups

	result := tensor.MustNewRaw(is, tensor.Float32, b.device)
	gd, kr, rd := grad.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < cIn; ci++ {
			g := ci / cInG
			cg := ci % cInG
			for ih := 0; ih < h; ih++ {
				for iw := 0; iw < w; iw++ {
					var acc float32
					for ki := 0; ki < kh; ki++ {
						ohNum := ih + p.PadH - ki*p.DilationH
						if ohNum < 0 || ohNum%p.StrideH != 0 {
							continue
						}
						oh := ohNum / p.StrideH
						if oh >= outH {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							owNum := iw + p.PadW - kj*p.DilationW
							if owNum < 0 || owNum%p.StrideW != 0 {
								continue
							}
							ow := owNum / p.StrideW
							if ow >= outW {
								continue
							}
							wi, wj := ki, kj
							if p.Flip {
								wi, wj = kh-1-ki, kw-1-kj
							}
							for co := g * cOutG; co < (g+1)*cOutG; co++ {
								acc += gd[((ni*cOut+co)*outH+oh)*outW+ow] *
									kr[((co*cInG+cg)*kh+wi)*kw+wj]
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

// Conv2DKernelBackward computes the convolution gradient with respect to
// the kernel.
func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, p ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d_kernel_backward", input, kernel, grad)
	validateConv("conv2d_kernel_backward", input, kernel, p.Groups)

	is, ks, gs := input.Shape(), kernel.Shape(), grad.Shape()
	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOut, cInG, kh, kw := ks[0], ks[1], ks[2], ks[3]
	outH, outW := gs[2], gs[3]
	cOutG := cOut / p.Groups

	result := tensor.MustNewRaw(ks, tensor.Float32, b.device)
	in, gd, rd := input.AsFloat32(), grad.AsFloat32(), result.AsFloat32()

	for co := 0; co < cOut; co++ {
		g := co / cOutG
		for cg := 0; cg < cInG; cg++ {
			ci := g*cInG + cg
			for ki := 0; ki < kh; ki++ {
				for kj := 0; kj < kw; kj++ {
					var acc float32
					for ni := 0; ni < n; ni++ {
						for oh := 0; oh < outH; oh++ {
							ih := oh*p.StrideH - p.PadH + ki*p.DilationH
							if ih < 0 || ih >= h {
								continue
							}
							for ow := 0; ow < outW; ow++ {
								iw := ow*p.StrideW - p.PadW + kj*p.DilationW
								if iw < 0 || iw >= w {
									continue
								}
								acc += gd[((ni*cOut+co)*outH+oh)*outW+ow] *
									in[((ni*cIn+ci)*h+ih)*w+iw]
							}
						}
					}
					wi, wj := ki, kj
					if p.Flip {
						wi, wj = kh-1-ki, kw-1-kj
					}
					rd[((co*cInG+cg)*kh+wi)*kw+wj] = acc
				}
			}
		}
	}
	return result
}
