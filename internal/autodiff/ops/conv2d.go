package ops

import (
	"github.com/ember-ml/ember/internal/tensor"
)

// Conv2DOp records a 2D convolution. Backward is pure orchestration:
// the backend supplies both gradient kernels.
type Conv2DOp struct {
	input, kernel, output *tensor.RawTensor
	params                tensor.ConvParams
}

// NewConv2DOp creates a new Conv2D operation.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, p tensor.ConvParams) *Conv2DOp {
	return &Conv2DOp{input: input, kernel: kernel, output: output, params: p}
}

func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }

func (op *Conv2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(op.input, op.kernel, grad, op.params),
		backend.Conv2DKernelBackward(op.input, op.kernel, grad, op.params),
	}
}

// ConvTranspose2DOp records a 2D transposed convolution.
type ConvTranspose2DOp struct {
	input, kernel, output *tensor.RawTensor
	params                tensor.ConvTransParams
}

// NewConvTranspose2DOp creates a new ConvTranspose2D operation.
func NewConvTranspose2DOp(input, kernel, output *tensor.RawTensor, p tensor.ConvTransParams) *ConvTranspose2DOp {
	return &ConvTranspose2DOp{input: input, kernel: kernel, output: output, params: p}
}

func (op *ConvTranspose2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

func (op *ConvTranspose2DOp) Output() *tensor.RawTensor { return op.output }

func (op *ConvTranspose2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.ConvTranspose2DInputBackward(op.input, op.kernel, grad, op.params),
		backend.ConvTranspose2DKernelBackward(op.input, op.kernel, grad, op.params),
	}
}

// MaxPool2DOp records a max pooling operation. The backward pass
// recomputes window argmaxes from the saved input.
type MaxPool2DOp struct {
	input, output *tensor.RawTensor
	params        tensor.PoolParams
}

// NewMaxPool2DOp creates a new MaxPool2D operation.
func NewMaxPool2DOp(input, output *tensor.RawTensor, p tensor.PoolParams) *MaxPool2DOp {
	return &MaxPool2DOp{input: input, output: output, params: p}
}

func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MaxPool2DOp) Output() *tensor.RawTensor  { return op.output }

func (op *MaxPool2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.input, grad, op.params)}
}

// MeanPool2DOp records a mean pooling operation.
type MeanPool2DOp struct {
	input, output *tensor.RawTensor
	params        tensor.PoolParams
}

// NewMeanPool2DOp creates a new MeanPool2D operation.
func NewMeanPool2DOp(input, output *tensor.RawTensor, p tensor.PoolParams) *MeanPool2DOp {
	return &MeanPool2DOp{input: input, output: output, params: p}
}

func (op *MeanPool2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MeanPool2DOp) Output() *tensor.RawTensor  { return op.output }

func (op *MeanPool2DOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MeanPool2DBackward(op.input, grad, op.params)}
}
