package cpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/parallel"
	"github.com/ember-ml/ember/internal/tensor"
)

func validateConv(op string, input, kernel *tensor.RawTensor, groups int) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("cpu: %s: input must be 4D [N,C,H,W], got %v", op, is))
	}
	if len(ks) != 4 {
		panic(fmt.Sprintf("cpu: %s: kernel must be 4D, got %v", op, ks))
	}
	if groups < 1 {
		panic(fmt.Sprintf("cpu: %s: groups must be >= 1, got %d", op, groups))
	}
	if is[1]%groups != 0 {
		panic(fmt.Sprintf("cpu: %s: input channels %d not divisible by groups %d", op, is[1], groups))
	}
}

// Conv2D performs grouped, dilated 2D cross-correlation with direct loops.
//
// Input [N, C_in, H, W], kernel [C_out, C_in/g, KH, KW],
// output [N, C_out, H_out, W_out]. With p.Flip the kernel window is
// reversed in both spatial dimensions (true convolution).
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, p ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d", input, kernel)
	validateConv("conv2d", input, kernel, p.Groups)

	is, ks := input.Shape(), kernel.Shape()
	if ks[1] != is[1]/p.Groups {
		panic(fmt.Sprintf("cpu: conv2d: kernel channels %d != %d/%d", ks[1], is[1], p.Groups))
	}
	if ks[0]%p.Groups != 0 {
		panic(fmt.Sprintf("cpu: conv2d: output channels %d not divisible by groups %d", ks[0], p.Groups))
	}

	n, cIn, h, w := is[0], is[1], is[2], is[3]
	cOut, cInG, kh, kw := ks[0], ks[1], ks[2], ks[3]
	outShape := tensor.Conv2DOutputShape(is, ks, p)
	outH, outW := outShape[2], outShape[3]
	cOutG := cOut / p.Groups

	result := tensor.MustNewRaw(outShape, tensor.Float32, b.device)
	in, kr, out := input.AsFloat32(), kernel.AsFloat32(), result.AsFloat32()

	parallel.ForBatch(n, cOut, func(ni, co int) {
		g := co / cOutG
		for oh := 0; oh < outH; oh++ {
			for ow := 0; ow < outW; ow++ {
				var acc float32
				for cg := 0; cg < cInG; cg++ {
					ci := g*cInG + cg
					for ki := 0; ki < kh; ki++ {
						ih := oh*p.StrideH - p.PadH + ki*p.DilationH
						if ih < 0 || ih >= h {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							iw := ow*p.StrideW - p.PadW + kj*p.DilationW
							if iw < 0 || iw >= w {
								continue
							}
							wi, wj := ki, kj
							if p.Flip {
								wi, wj = kh-1-ki, kw-1-kj
							}
							acc += in[((ni*cIn+ci)*h+ih)*w+iw] *
								kr[((co*cInG+cg)*kh+wi)*kw+wj]
						}
					}
				}
				out[((ni*cOut+co)*outH+oh)*outW+ow] = acc
			}
		}
	}, b.par)
	return result
}

// ConvParams is re-exported locally for brevity.
type ConvParams = tensor.ConvParams
