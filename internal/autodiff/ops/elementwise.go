package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// AddOp records element-wise addition with broadcasting.
type AddOp struct {
	a, b, output *tensor.RawTensor
}

// NewAddOp creates a new Add operation.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *AddOp) Output() *tensor.RawTensor  { return op.output }

func (op *AddOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceToShape(grad, op.a.Shape(), backend),
		reduceToShape(grad, op.b.Shape(), backend),
	}
}

// SubOp records element-wise subtraction with broadcasting.
type SubOp struct {
	a, b, output *tensor.RawTensor
}

// NewSubOp creates a new Sub operation.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, output: output}
}

func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *SubOp) Output() *tensor.RawTensor  { return op.output }

func (op *SubOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceToShape(grad, op.a.Shape(), backend),
		reduceToShape(backend.MulScalar(grad, -1), op.b.Shape(), backend),
	}
}

// MulOp records element-wise multiplication with broadcasting.
type MulOp struct {
	a, b, output *tensor.RawTensor
}

// NewMulOp creates a new Mul operation.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, output: output}
}

func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MulOp) Output() *tensor.RawTensor  { return op.output }

func (op *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceToShape(backend.Mul(grad, op.b), op.a.Shape(), backend),
		reduceToShape(backend.Mul(grad, op.a), op.b.Shape(), backend),
	}
}

// DivOp records element-wise division with broadcasting.
type DivOp struct {
	a, b, output *tensor.RawTensor
}

// NewDivOp creates a new Div operation.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, output: output}
}

func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *DivOp) Output() *tensor.RawTensor  { return op.output }

func (op *DivOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d/da (a/b) = 1/b, d/db (a/b) = -a/b².
	ga := backend.Div(grad, op.b)
	gb := backend.MulScalar(backend.Div(backend.Mul(grad, op.a), backend.Mul(op.b, op.b)), -1)
	return []*tensor.RawTensor{
		reduceToShape(ga, op.a.Shape(), backend),
		reduceToShape(gb, op.b.Shape(), backend),
	}
}
