package nn

import (
	"fmt"

	"github.com/ember-ml/ember/internal/tensor"
)

// MaxPool2D applies 2D max pooling over [N,C,H,W] input.
type MaxPool2D[B tensor.Backend] struct {
	kernel  [2]int
	stride  [2]int
	backend B
}

// NewMaxPool2D creates a max pooling layer. A zero stride defaults to the
// kernel size (non-overlapping windows).
func NewMaxPool2D[B tensor.Backend](kernelH, kernelW, strideH, strideW int, backend B) (*MaxPool2D[B], error) {
	kernel, stride, err := poolGeometry("maxpool2d", kernelH, kernelW, strideH, strideW)
	if err != nil {
		return nil, err
	}
	return &MaxPool2D[B]{kernel: kernel, stride: stride, backend: backend}, nil
}

// Forward performs the forward pass.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	p := poolParams(m.kernel, m.stride)
	return tensor.New[float32, B](m.backend.MaxPool2D(input.Raw(), p), m.backend)
}

// Parameters returns an empty slice; pooling has no trainable parameters.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for pooling layers.
func (m *MaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// MeanPool2D applies 2D mean (average) pooling over [N,C,H,W] input.
type MeanPool2D[B tensor.Backend] struct {
	kernel  [2]int
	stride  [2]int
	backend B
}

// NewMeanPool2D creates a mean pooling layer. A zero stride defaults to
// the kernel size.
func NewMeanPool2D[B tensor.Backend](kernelH, kernelW, strideH, strideW int, backend B) (*MeanPool2D[B], error) {
	kernel, stride, err := poolGeometry("meanpool2d", kernelH, kernelW, strideH, strideW)
	if err != nil {
		return nil, err
	}
	return &MeanPool2D[B]{kernel: kernel, stride: stride, backend: backend}, nil
}

// Forward performs the forward pass.
func (m *MeanPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	p := poolParams(m.kernel, m.stride)
	return tensor.New[float32, B](m.backend.MeanPool2D(input.Raw(), p), m.backend)
}

// Parameters returns an empty slice; pooling has no trainable parameters.
func (m *MeanPool2D[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (m *MeanPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for pooling layers.
func (m *MeanPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// AdaptiveMaxPool2D max-pools [N,C,H,W] input down to a fixed [outH,outW]
// spatial size. The input spatial size must be an exact multiple of the
// output size; the window and stride are derived per input.
type AdaptiveMaxPool2D[B tensor.Backend] struct {
	output  [2]int
	backend B
}

// NewAdaptiveMaxPool2D creates an adaptive max pooling layer with the
// given target output size.
func NewAdaptiveMaxPool2D[B tensor.Backend](outH, outW int, backend B) (*AdaptiveMaxPool2D[B], error) {
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("nn: adaptivemaxpool2d: invalid output size %dx%d", outH, outW)
	}
	return &AdaptiveMaxPool2D[B]{output: [2]int{outH, outW}, backend: backend}, nil
}

// Forward performs the forward pass.
func (m *AdaptiveMaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	p := adaptivePoolParams("adaptivemaxpool2d", input.Shape(), m.output)
	return tensor.New[float32, B](m.backend.MaxPool2D(input.Raw(), p), m.backend)
}

// Parameters returns an empty slice; pooling has no trainable parameters.
func (m *AdaptiveMaxPool2D[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (m *AdaptiveMaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for pooling layers.
func (m *AdaptiveMaxPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// AdaptiveMeanPool2D mean-pools [N,C,H,W] input down to a fixed
// [outH,outW] spatial size. The input spatial size must be an exact
// multiple of the output size.
type AdaptiveMeanPool2D[B tensor.Backend] struct {
	output  [2]int
	backend B
}

// NewAdaptiveMeanPool2D creates an adaptive mean pooling layer with the
// given target output size.
func NewAdaptiveMeanPool2D[B tensor.Backend](outH, outW int, backend B) (*AdaptiveMeanPool2D[B], error) {
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("nn: adaptivemeanpool2d: invalid output size %dx%d", outH, outW)
	}
	return &AdaptiveMeanPool2D[B]{output: [2]int{outH, outW}, backend: backend}, nil
}

// Forward performs the forward pass.
func (m *AdaptiveMeanPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	p := adaptivePoolParams("adaptivemeanpool2d", input.Shape(), m.output)
	return tensor.New[float32, B](m.backend.MeanPool2D(input.Raw(), p), m.backend)
}

// Parameters returns an empty slice; pooling has no trainable parameters.
func (m *AdaptiveMeanPool2D[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty state dictionary.
func (m *AdaptiveMeanPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for pooling layers.
func (m *AdaptiveMeanPool2D[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func poolGeometry(name string, kernelH, kernelW, strideH, strideW int) ([2]int, [2]int, error) {
	if kernelH <= 0 || kernelW <= 0 {
		return [2]int{}, [2]int{}, fmt.Errorf("nn: %s: invalid kernel size %dx%d", name, kernelH, kernelW)
	}
	if strideH == 0 {
		strideH = kernelH
	}
	if strideW == 0 {
		strideW = kernelW
	}
	if strideH < 0 || strideW < 0 {
		return [2]int{}, [2]int{}, fmt.Errorf("nn: %s: invalid stride %dx%d", name, strideH, strideW)
	}
	return [2]int{kernelH, kernelW}, [2]int{strideH, strideW}, nil
}

func poolParams(kernel, stride [2]int) tensor.PoolParams {
	return tensor.PoolParams{
		KernelH: kernel[0], KernelW: kernel[1],
		StrideH: stride[0], StrideW: stride[1],
	}
}

func adaptivePoolParams(name string, input tensor.Shape, output [2]int) tensor.PoolParams {
	if len(input) != 4 {
		panic(fmt.Sprintf("nn: %s: expected 4D input [N,C,H,W], got %dD", name, len(input)))
	}
	if input[2]%output[0] != 0 || input[3]%output[1] != 0 {
		panic(fmt.Sprintf("nn: %s: input %dx%d not divisible by output %dx%d",
			name, input[2], input[3], output[0], output[1]))
	}
	kh := input[2] / output[0]
	kw := input[3] / output[1]
	return tensor.PoolParams{KernelH: kh, KernelW: kw, StrideH: kh, StrideW: kw}
}
