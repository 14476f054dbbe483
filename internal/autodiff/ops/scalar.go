package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// ScalarOpKind identifies the scalar operation that was applied.
type ScalarOpKind int

// Scalar operation kinds.
const (
	ScalarAdd ScalarOpKind = iota
	ScalarSub
	ScalarMul
	ScalarDiv
)

// ScalarOp records an element-wise operation with a constant scalar.
type ScalarOp struct {
	input, output *tensor.RawTensor
	scalar        float64
	kind          ScalarOpKind
}

// NewScalarOp creates a new scalar operation record.
func NewScalarOp(kind ScalarOpKind, input, output *tensor.RawTensor, scalar float64) *ScalarOp {
	return &ScalarOp{input: input, output: output, scalar: scalar, kind: kind}
}

func (op *ScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ScalarOp) Output() *tensor.RawTensor  { return op.output }

func (op *ScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case ScalarAdd, ScalarSub:
		return []*tensor.RawTensor{grad}
	case ScalarMul:
		return []*tensor.RawTensor{backend.MulScalar(grad, op.scalar)}
	case ScalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(grad, op.scalar)}
	default:
		panic("ops: unknown scalar op kind")
	}
}

// SqrtOp records an element-wise square root.
type SqrtOp struct {
	input, output *tensor.RawTensor
}

// NewSqrtOp creates a new Sqrt operation.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SqrtOp) Output() *tensor.RawTensor  { return op.output }

func (op *SqrtOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d sqrt(x) = 1 / (2 sqrt(x)) = 0.5 / output.
	return []*tensor.RawTensor{
		backend.MulScalar(backend.Div(grad, op.output), 0.5),
	}
}

// RsqrtOp records an element-wise reciprocal square root.
type RsqrtOp struct {
	input, output *tensor.RawTensor
}

// NewRsqrtOp creates a new Rsqrt operation.
func NewRsqrtOp(input, output *tensor.RawTensor) *RsqrtOp {
	return &RsqrtOp{input: input, output: output}
}

func (op *RsqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *RsqrtOp) Output() *tensor.RawTensor  { return op.output }

func (op *RsqrtOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d x^(-1/2) = -x^(-3/2) / 2 = -0.5 * output / x.
	return []*tensor.RawTensor{
		backend.MulScalar(backend.Mul(grad, backend.Div(op.output, op.input)), -0.5),
	}
}
