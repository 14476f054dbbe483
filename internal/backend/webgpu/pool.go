package webgpu

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

func validatePool(op string, input *tensor.RawTensor, p tensor.PoolParams) {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("webgpu: %s: input must be 4D [N,C,H,W], got %v", op, input.Shape()))
	}
	if p.KernelH <= 0 || p.KernelW <= 0 || p.StrideH <= 0 || p.StrideW <= 0 {
		panic(fmt.Sprintf("webgpu: %s: invalid window %+v", op, p))
	}
}

func poolUniform(outElems int, is, os tensor.Shape, p tensor.PoolParams) []byte {
	return uniformU32(
		uint32(outElems),
		uint32(is[1]), uint32(is[2]), uint32(is[3]),
		uint32(p.KernelH), uint32(p.KernelW),
		uint32(p.StrideH), uint32(p.StrideW),
		uint32(os[2]), uint32(os[3]),
	)
}

// MaxPool2D performs 2D max pooling on GPU.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("maxpool2d", input)
	validatePool("maxpool2d", input, p)

	outShape := tensor.Pool2DOutputShape(input.Shape(), p)
	n := outShape.NumElements()
	data, err := b.runKernel("maxpool2d", maxPool2dShader,
		[][]byte{input.Data()}, n*4,
		poolUniform(n, input.Shape(), outShape, p), workgroups1D(n))
	if err != nil {
		panic("webgpu: maxpool2d: " + err.Error())
	}
	return b.newResult(outShape, data)
}

// MaxPool2DBackward routes the output gradient to the argmax position of
// each window. Ties go to the first maximal element in scan order, on
// every backend.
func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("maxpool2d_backward", input, grad)
	validatePool("maxpool2d_backward", input, p)

	n := input.NumElements()
	data, err := b.runKernel("maxpool2d_backward", maxPool2dBackwardShader,
		[][]byte{input.Data(), grad.Data()}, n*4,
		poolUniform(n, input.Shape(), grad.Shape(), p), workgroups1D(n))
	if err != nil {
		panic("webgpu: maxpool2d_backward: " + err.Error())
	}
	return b.newResult(input.Shape().Clone(), data)
}

// MeanPool2D performs 2D mean pooling on GPU.
func (b *Backend) MeanPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("meanpool2d", input)
	validatePool("meanpool2d", input, p)

	outShape := tensor.Pool2DOutputShape(input.Shape(), p)
	n := outShape.NumElements()
	data, err := b.runKernel("meanpool2d", meanPool2dShader,
		[][]byte{input.Data()}, n*4,
		poolUniform(n, input.Shape(), outShape, p), workgroups1D(n))
	if err != nil {
		panic("webgpu: meanpool2d: " + err.Error())
	}
	return b.newResult(outShape, data)
}

// MeanPool2DBackward spreads each output gradient uniformly over its
// window.
func (b *Backend) MeanPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	checkFloat32("meanpool2d_backward", input, grad)
	validatePool("meanpool2d_backward", input, p)

	n := input.NumElements()
	data, err := b.runKernel("meanpool2d_backward", meanPool2dBackwardShader,
		[][]byte{grad.Data()}, n*4,
		poolUniform(n, input.Shape(), grad.Shape(), p), workgroups1D(n))
	if err != nil {
		panic("webgpu: meanpool2d_backward: " + err.Error())
	}
	return b.newResult(input.Shape().Clone(), data)
}
