package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// SumOp records a full reduction to a 0-d scalar.
type SumOp struct {
	input, output *tensor.RawTensor
}

// NewSumOp creates a new Sum operation.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumOp) Output() *tensor.RawTensor  { return op.output }

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fill(op.input.Shape(), grad.AsFloat32()[0], backend)}
}

// SumDimOp records a sum along one dimension.
type SumDimOp struct {
	input, output *tensor.RawTensor
	dim           int
	keepDim       bool
}

// NewSumDimOp creates a new SumDim operation.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumDimOp) Output() *tensor.RawTensor  { return op.output }

// Backward stretches the gradient back along the reduced dimension by
// broadcasting it against a zero tensor of the input shape.
func (op *SumDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandGrad(grad, op.input.Shape(), op.dim, op.keepDim, backend)}
}

// MeanDimOp records a mean along one dimension.
type MeanDimOp struct {
	input, output *tensor.RawTensor
	dim           int
	keepDim       bool
}

// NewMeanDimOp creates a new MeanDim operation.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MeanDimOp) Output() *tensor.RawTensor  { return op.output }

func (op *MeanDimOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	size := op.input.Shape()[op.dim]
	scaled := backend.DivScalar(grad, float64(size))
	return []*tensor.RawTensor{expandGrad(scaled, op.input.Shape(), op.dim, op.keepDim, backend)}
}

func expandGrad(grad *tensor.RawTensor, inputShape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	g := grad
	if !keepDim {
		withDim := inputShape.Clone()
		withDim[dim] = 1
		g = backend.Reshape(g, withDim)
	}
	zeros := tensor.MustNewRaw(inputShape, tensor.Float32, backend.Device())
	return backend.Add(zeros, g)
}
