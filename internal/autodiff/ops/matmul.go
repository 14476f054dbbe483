package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// MatMulOp records a matrix multiplication.
type MatMulOp struct {
	a, b, output *tensor.RawTensor
}

// NewMatMulOp creates a new MatMul operation.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output}
}

func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MatMulOp) Output() *tensor.RawTensor  { return op.output }

// Backward computes dA = grad @ Bᵀ and dB = Aᵀ @ grad.
func (op *MatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	ga := backend.MatMul(grad, backend.Transpose(op.b))
	gb := backend.MatMul(backend.Transpose(op.a), grad)
	return []*tensor.RawTensor{ga, gb}
}

// TransposeOp records a dimension permutation.
type TransposeOp struct {
	input, output *tensor.RawTensor
	axes          []int
}

// NewTransposeOp creates a new Transpose operation.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{input: input, output: output, axes: axes}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TransposeOp) Output() *tensor.RawTensor  { return op.output }

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(grad, inverse...)}
}

// ReshapeOp records a shape change. Without this record gradients would
// stop at the reshaped view instead of reaching the original parameter.
type ReshapeOp struct {
	input, output *tensor.RawTensor
}

// NewReshapeOp creates a new Reshape operation.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReshapeOp) Output() *tensor.RawTensor  { return op.output }

func (op *ReshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, op.input.Shape())}
}
