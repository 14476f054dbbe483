package webgpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

func validateConv(op string, input, kernel *tensor.RawTensor, p tensor.ConvParams) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("webgpu: %s: input and kernel must be 4D, got %v and %v", op, is, ks))
	}
	if p.Groups < 1 {
		panic(fmt.Sprintf("webgpu: %s: groups must be >= 1, got %d", op, p.Groups))
	}
	if is[1] != ks[1]*p.Groups {
		panic(fmt.Sprintf("webgpu: %s: input channels %d != kernel channels %d x groups %d",
			op, is[1], ks[1], p.Groups))
	}
	if ks[0]%p.Groups != 0 {
		panic(fmt.Sprintf("webgpu: %s: output channels %d not divisible by groups %d", op, ks[0], p.Groups))
	}
	if p.DilationH > 1 || p.DilationW > 1 {
		panic(fmt.Sprintf("webgpu: %s: dilation > 1 not supported", op))
	}
}

// convParams packs the shared convolution uniform block. The kernel
// backward shader additionally needs the batch size in front.
func convParams(outElems int, is, ks, os tensor.Shape, p tensor.ConvParams, withBatch bool) []byte {
	flip := uint32(0)
	if p.Flip {
		flip = 1
	}
	fields := make([]uint32, 0, 17)
	fields = append(fields, uint32(outElems))
	if withBatch {
		fields = append(fields, uint32(is[0]))
	}
	fields = append(fields,
		uint32(is[1]), uint32(is[2]), uint32(is[3]),
		uint32(ks[0]), uint32(ks[2]), uint32(ks[3]),
		uint32(p.StrideH), uint32(p.StrideW),
		uint32(p.PadH), uint32(p.PadW),
		uint32(ks[1]), uint32(ks[0]/p.Groups),
		uint32(os[2]), uint32(os[3]),
		flip,
	)
	return uniformU32(fields...)
}

// Conv2D performs grouped 2D cross-correlation on GPU.
// Dilation is not supported and panics.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d", input, kernel)
	validateConv("conv2d", input, kernel, p)

	outShape := tensor.Conv2DOutputShape(input.Shape(), kernel.Shape(), p)
	n := outShape.NumElements()
	data, err := b.runKernel("conv2d", conv2dShader,
		[][]byte{input.Data(), kernel.Data()}, n*4,
		convParams(n, input.Shape(), kernel.Shape(), outShape, p, false),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv2d: " + err.Error())
	}
	return b.newResult(outShape, data)
}

// Conv2DInputBackward computes the convolution gradient with respect to
// the input on GPU.
func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d_input_backward", input, kernel, grad)
	validateConv("conv2d_input_backward", input, kernel, p)

	n := input.NumElements()
	data, err := b.runKernel("conv2d_input_backward", conv2dInputBackwardShader,
		[][]byte{kernel.Data(), grad.Data()}, n*4,
		convParams(n, input.Shape(), kernel.Shape(), grad.Shape(), p, false),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv2d_input_backward: " + err.Error())
	}
	return b.newResult(input.Shape().Clone(), data)
}

// Conv2DKernelBackward computes the convolution gradient with respect to
// the kernel on GPU.
func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	checkFloat32("conv2d_kernel_backward", input, kernel, grad)
	validateConv("conv2d_kernel_backward", input, kernel, p)

	n := kernel.NumElements()
	data, err := b.runKernel("conv2d_kernel_backward", conv2dKernelBackwardShader,
		[][]byte{input.Data(), grad.Data()}, n*4,
		convParams(n, input.Shape(), kernel.Shape(), grad.Shape(), p, true),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv2d_kernel_backward: " + err.Error())
	}
	return b.newResult(kernel.Shape().Clone(), data)
}

func validateConvTrans(op string, input, kernel *tensor.RawTensor, p tensor.ConvTransParams) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("webgpu: %s: input and kernel must be 4D, got %v and %v", op, is, ks))
	}
	if p.Groups < 1 {
		panic(fmt.Sprintf("webgpu: %s: groups must be >= 1, got %d", op, p.Groups))
	}
	if is[1] != ks[0] {
		panic(fmt.Sprintf("webgpu: %s: input channels %d != kernel channels %d", op, is[1], ks[0]))
	}
	if p.Groups > 1 {
		panic(fmt.Sprintf("webgpu: %s: groups > 1 not supported", op))
	}
}

func convTransParams(outElems int, is, ks, os tensor.Shape, p tensor.ConvTransParams, withBatch bool) []byte {
	fields := make([]uint32, 0, 14)
	fields = append(fields, uint32(outElems))
	if withBatch {
		fields = append(fields, uint32(is[0]))
	}
	fields = append(fields,
		uint32(is[1]), uint32(is[2]), uint32(is[3]),
		uint32(os[1]), uint32(ks[2]), uint32(ks[3]),
		uint32(p.StrideH), uint32(p.StrideW),
		uint32(p.PadH), uint32(p.PadW),
		uint32(os[2]), uint32(os[3]),
	)
	return uniformU32(fields...)
}

// ConvTranspose2D performs 2D transposed convolution on GPU.
// Groups beyond 1 are not supported and panic.
func (b *Backend) ConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d", input, kernel)
	validateConvTrans("conv_transpose2d", input, kernel, p)

	outShape := tensor.ConvTranspose2DOutputShape(input.Shape(), kernel.Shape(), p)
	n := outShape.NumElements()
	data, err := b.runKernel("conv_transpose2d", convTranspose2dShader,
		[][]byte{input.Data(), kernel.Data()}, n*4,
		convTransParams(n, input.Shape(), kernel.Shape(), outShape, p, false),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv_transpose2d: " + err.Error())
	}
	return b.newResult(outShape, data)
}

// ConvTranspose2DInputBackward computes the transposed-convolution
// gradient with respect to the input on GPU.
func (b *Backend) ConvTranspose2DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d_input_backward", input, kernel, grad)
	validateConvTrans("conv_transpose2d_input_backward", input, kernel, p)

	n := input.NumElements()
	data, err := b.runKernel("conv_transpose2d_input_backward", convTranspose2dInputBackwardShader,
		[][]byte{kernel.Data(), grad.Data()}, n*4,
		convTransParams(n, input.Shape(), kernel.Shape(), grad.Shape(), p, false),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv_transpose2d_input_backward: " + err.Error())
	}
	return b.newResult(input.Shape().Clone(), data)
}

// ConvTranspose2DKernelBackward computes the transposed-convolution
// gradient with respect to the kernel on GPU.
func (b *Backend) ConvTranspose2DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	checkFloat32("conv_transpose2d_kernel_backward", input, kernel, grad)
	validateConvTrans("conv_transpose2d_kernel_backward", input, kernel, p)

	n := kernel.NumElements()
	data, err := b.runKernel("conv_transpose2d_kernel_backward", convTranspose2dKernelBackwardShader,
		[][]byte{input.Data(), grad.Data()}, n*4,
		convTransParams(n, input.Shape(), kernel.Shape(), grad.Shape(), p, true),
		workgroups1D(n))
	if err != nil {
		panic("webgpu: conv_transpose2d_kernel_backward: " + err.Error())
	}
	return b.newResult(kernel.Shape().Clone(), data)
}
