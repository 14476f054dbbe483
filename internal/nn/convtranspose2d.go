package nn

import (
	"fmt"
	"math/rand"

	"github.com/ember-ml/ember/internal/tensor"
)

// ConvTranspose2DConfig configures a ConvTranspose2D layer. Zero values
// for Stride and Groups are normalized to 1.
type ConvTranspose2DConfig struct {
	Stride  [2]int
	Padding [2]int
	Groups  int
	Bias    bool
}

func (c ConvTranspose2DConfig) normalized() ConvTranspose2DConfig {
	for i := 0; i < 2; i++ {
		if c.Stride[i] == 0 {
			c.Stride[i] = 1
		}
	}
	if c.Groups == 0 {
		c.Groups = 1
	}
	return c
}

// ConvTranspose2D is a 2D transposed convolutional layer, the gradient
// of Conv2D with respect to its input used as a forward operation.
// Commonly used for upsampling.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [in_channels, out_channels/groups, kernel_h, kernel_w]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, (h-1)*stride - 2*pad + kernel_h, ...]
type ConvTranspose2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	config      ConvTranspose2DConfig

	weight *Parameter[B]
	bias   *Parameter[B] // nil when config.Bias is false

	backend B
}

// NewConvTranspose2D creates a 2D transposed convolutional layer with
// Xavier-initialized weights and zero-initialized bias.
func NewConvTranspose2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW int, config ConvTranspose2DConfig, rng *rand.Rand, backend B) (*ConvTranspose2D[B], error) {
	config = config.normalized()
	if inChannels <= 0 || outChannels <= 0 {
		return nil, fmt.Errorf("nn: convtranspose2d: invalid channels in=%d, out=%d", inChannels, outChannels)
	}
	if kernelH <= 0 || kernelW <= 0 {
		return nil, fmt.Errorf("nn: convtranspose2d: invalid kernel size %dx%d", kernelH, kernelW)
	}
	if config.Stride[0] <= 0 || config.Stride[1] <= 0 {
		return nil, fmt.Errorf("nn: convtranspose2d: invalid stride %v", config.Stride)
	}
	if config.Padding[0] < 0 || config.Padding[1] < 0 {
		return nil, fmt.Errorf("nn: convtranspose2d: invalid padding %v", config.Padding)
	}
	if inChannels%config.Groups != 0 || outChannels%config.Groups != 0 {
		return nil, fmt.Errorf("nn: convtranspose2d: groups %d must divide channels in=%d, out=%d",
			config.Groups, inChannels, outChannels)
	}

	weightShape := tensor.Shape{inChannels, outChannels / config.Groups, kernelH, kernelW}
	fanIn := (inChannels / config.Groups) * kernelH * kernelW
	fanOut := (outChannels / config.Groups) * kernelH * kernelW
	weight := NewParameter("weight", Xavier(fanIn, fanOut, weightShape, rng, backend))

	var bias *Parameter[B]
	if config.Bias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &ConvTranspose2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  [2]int{kernelH, kernelW},
		config:      config,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}, nil
}

// Forward performs the forward pass.
func (c *ConvTranspose2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("nn: convtranspose2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != c.inChannels {
		panic(fmt.Sprintf("nn: convtranspose2d: input channels %d != expected %d", inputShape[1], c.inChannels))
	}

	p := tensor.ConvTransParams{
		StrideH: c.config.Stride[0],
		StrideW: c.config.Stride[1],
		PadH:    c.config.Padding[0],
		PadW:    c.config.Padding[1],
		Groups:  c.config.Groups,
	}
	outputRaw := c.backend.ConvTranspose2D(input.Raw(), c.weight.Tensor().Raw(), p)
	output := tensor.New[float32, B](outputRaw, c.backend)

	if c.bias != nil {
		output = output.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return output
}

// Parameters returns all trainable parameters.
func (c *ConvTranspose2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Config returns the normalized layer configuration.
func (c *ConvTranspose2D[B]) Config() ConvTranspose2DConfig {
	return c.config
}

// StateDict returns a map of parameter names to raw tensors.
func (c *ConvTranspose2D[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(c.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (c *ConvTranspose2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(c.Parameters(), stateDict)
}
