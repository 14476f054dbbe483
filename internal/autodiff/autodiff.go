// Package autodiff provides tape-based reverse-mode automatic
// differentiation as a backend decorator: it wraps any compute backend,
// records every differentiable operation on a gradient tape, and walks
// the tape backwards to produce gradients.
package autodiff

import (
	"fmt"

	"github.com/ember-ml/ember/internal/autodiff/ops"
	"github.com/ember-ml/ember/internal/tensor"
)

// Backend wraps a compute backend and records operations for automatic
// differentiation. It implements tensor.Backend, so tensors built on it
// use the wrapped backend for compute while the tape captures the graph.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps the given backend with a fresh gradient tape.
// The tape starts recording immediately.
func New[B tensor.Backend](inner B) *Backend[B] {
	t := NewGradientTape()
	t.StartRecording()
	return &Backend[B]{inner: inner, tape: t}
}

// Inner returns the wrapped backend.
func (ad *Backend[B]) Inner() B { return ad.inner }

// Tape returns the gradient tape.
func (ad *Backend[B]) Tape() *GradientTape { return ad.tape }

func (ad *Backend[B]) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Add(a, b)
	ad.tape.Record(ops.NewAddOp(a, b, out))
	return out
}

func (ad *Backend[B]) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sub(a, b)
	ad.tape.Record(ops.NewSubOp(a, b, out))
	return out
}

func (ad *Backend[B]) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Mul(a, b)
	ad.tape.Record(ops.NewMulOp(a, b, out))
	return out
}

func (ad *Backend[B]) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Div(a, b)
	ad.tape.Record(ops.NewDivOp(a, b, out))
	return out
}

func (ad *Backend[B]) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := ad.inner.AddScalar(x, s)
	ad.tape.Record(ops.NewScalarOp(ops.ScalarAdd, x, out, s))
	return out
}

func (ad *Backend[B]) SubScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := ad.inner.SubScalar(x, s)
	ad.tape.Record(ops.NewScalarOp(ops.ScalarSub, x, out, s))
	return out
}

func (ad *Backend[B]) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := ad.inner.MulScalar(x, s)
	ad.tape.Record(ops.NewScalarOp(ops.ScalarMul, x, out, s))
	return out
}

func (ad *Backend[B]) DivScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := ad.inner.DivScalar(x, s)
	ad.tape.Record(ops.NewScalarOp(ops.ScalarDiv, x, out, s))
	return out
}

func (ad *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sqrt(x)
	ad.tape.Record(ops.NewSqrtOp(x, out))
	return out
}

func (ad *Backend[B]) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Rsqrt(x)
	ad.tape.Record(ops.NewRsqrtOp(x, out))
	return out
}

func (ad *Backend[B]) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.MatMul(a, b)
	ad.tape.Record(ops.NewMatMulOp(a, b, out))
	return out
}

func (ad *Backend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	out := ad.inner.Reshape(t, newShape)
	ad.tape.Record(ops.NewReshapeOp(t, out))
	return out
}

func (ad *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := ad.inner.Transpose(t, axes...)
	resolved := axes
	if len(resolved) == 0 {
		resolved = make([]int, len(t.Shape()))
		for i := range resolved {
			resolved[i] = len(resolved) - 1 - i
		}
	}
	ad.tape.Record(ops.NewTransposeOp(t, out, resolved))
	return out
}

func (ad *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := ad.inner.Sum(x)
	ad.tape.Record(ops.NewSumOp(x, out))
	return out
}

func (ad *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.SumDim(x, dim, keepDim)
	ad.tape.Record(ops.NewSumDimOp(x, out, dim, keepDim))
	return out
}

func (ad *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := ad.inner.MeanDim(x, dim, keepDim)
	ad.tape.Record(ops.NewMeanDimOp(x, out, dim, keepDim))
	return out
}

func (ad *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	out := ad.inner.Conv2D(input, kernel, p)
	ad.tape.Record(ops.NewConv2DOp(input, kernel, out, p))
	return out
}

func (ad *Backend[B]) ConvTranspose2D(input, kernel *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	out := ad.inner.ConvTranspose2D(input, kernel, p)
	ad.tape.Record(ops.NewConvTranspose2DOp(input, kernel, out, p))
	return out
}

func (ad *Backend[B]) MaxPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	out := ad.inner.MaxPool2D(input, p)
	ad.tape.Record(ops.NewMaxPool2DOp(input, out, p))
	return out
}

func (ad *Backend[B]) MeanPool2D(input *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	out := ad.inner.MeanPool2D(input, p)
	ad.tape.Record(ops.NewMeanPool2DOp(input, out, p))
	return out
}

// Backward kernels are differentiation machinery, not differentiable
// operations; they pass through to the inner backend unrecorded.

func (ad *Backend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	return ad.inner.Conv2DInputBackward(input, kernel, grad, p)
}

func (ad *Backend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvParams) *tensor.RawTensor {
	return ad.inner.Conv2DKernelBackward(input, kernel, grad, p)
}

func (ad *Backend[B]) ConvTranspose2DInputBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	return ad.inner.ConvTranspose2DInputBackward(input, kernel, grad, p)
}

func (ad *Backend[B]) ConvTranspose2DKernelBackward(input, kernel, grad *tensor.RawTensor, p tensor.ConvTransParams) *tensor.RawTensor {
	return ad.inner.ConvTranspose2DKernelBackward(input, kernel, grad, p)
}

func (ad *Backend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	return ad.inner.MaxPool2DBackward(input, grad, p)
}

func (ad *Backend[B]) MeanPool2DBackward(input, grad *tensor.RawTensor, p tensor.PoolParams) *tensor.RawTensor {
	return ad.inner.MeanPool2DBackward(input, grad, p)
}

func (ad *Backend[B]) Name() string {
	return fmt.Sprintf("Autodiff(%s)", ad.inner.Name())
}

func (ad *Backend[B]) Device() tensor.Device {
	return ad.inner.Device()
}
