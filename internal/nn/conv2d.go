package nn

import (
	"fmt"
	"math/rand"

	"github.com/ember-ml/ember/internal/tensor"
)

// Conv2DConfig configures a Conv2D layer. Zero values for Stride,
// Dilation and Groups are normalized to 1.
type Conv2DConfig struct {
	Stride   [2]int
	Padding  [2]int
	Dilation [2]int
	Groups   int
	Flip     bool // index the kernel back to front (true convolution)
	Bias     bool
}

func (c Conv2DConfig) normalized() Conv2DConfig {
	for i := 0; i < 2; i++ {
		if c.Stride[i] == 0 {
			c.Stride[i] = 1
		}
		if c.Dilation[i] == 0 {
			c.Dilation[i] = 1
		}
	}
	if c.Groups == 0 {
		c.Groups = 1
	}
	return c
}

// Conv2D is a 2D convolutional layer.
//
// The core operation is cross-correlation; setting Flip in the config
// flips the kernel spatially, which is true convolution. Dilation, groups
// (including depthwise, groups == channels) and zero padding follow the
// usual [N,C,H,W] conventions:
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels/groups, kernel_h, kernel_w]
// Bias shape:   [out_channels]
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	config      Conv2DConfig

	weight *Parameter[B]
	bias   *Parameter[B] // nil when config.Bias is false

	backend B
}

// NewConv2D creates a 2D convolutional layer with Xavier-initialized
// weights and zero-initialized bias.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW int, config Conv2DConfig, rng *rand.Rand, backend B) (*Conv2D[B], error) {
	config = config.normalized()
	if inChannels <= 0 || outChannels <= 0 {
		return nil, fmt.Errorf("nn: conv2d: invalid channels in=%d, out=%d", inChannels, outChannels)
	}
	if kernelH <= 0 || kernelW <= 0 {
		return nil, fmt.Errorf("nn: conv2d: invalid kernel size %dx%d", kernelH, kernelW)
	}
	if config.Stride[0] <= 0 || config.Stride[1] <= 0 {
		return nil, fmt.Errorf("nn: conv2d: invalid stride %v", config.Stride)
	}
	if config.Padding[0] < 0 || config.Padding[1] < 0 {
		return nil, fmt.Errorf("nn: conv2d: invalid padding %v", config.Padding)
	}
	if config.Dilation[0] <= 0 || config.Dilation[1] <= 0 {
		return nil, fmt.Errorf("nn: conv2d: invalid dilation %v", config.Dilation)
	}
	if inChannels%config.Groups != 0 || outChannels%config.Groups != 0 {
		return nil, fmt.Errorf("nn: conv2d: groups %d must divide channels in=%d, out=%d",
			config.Groups, inChannels, outChannels)
	}

	weightShape := tensor.Shape{outChannels, inChannels / config.Groups, kernelH, kernelW}
	fanIn := (inChannels / config.Groups) * kernelH * kernelW
	fanOut := (outChannels / config.Groups) * kernelH * kernelW
	weight := NewParameter("weight", Xavier(fanIn, fanOut, weightShape, rng, backend))

	var bias *Parameter[B]
	if config.Bias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &Conv2D[B]{
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
//
// Input: [batch, in_channels, height, width]
// Output: [batch, out_channels, out_h, out_w]
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("nn: conv2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != c.inChannels {
		panic(fmt.Sprintf("nn: conv2d: input channels %d != expected %d", inputShape[1], c.inChannels))
	}

	outputRaw := c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.convParams())
	output := tensor.New[float32, B](outputRaw, c.backend)

	if c.bias != nil {
		// Broadcast [out_channels] as [1, out_channels, 1, 1].
		output = output.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
	}
	return output
}

func (c *Conv2D[B]) convParams() tensor.ConvParams {
	return tensor.ConvParams{
		StrideH:   c.config.Stride[0],
		StrideW:   c.config.Stride[1],
		PadH:      c.config.Padding[0],
		PadW:      c.config.Padding[1],
		DilationH: c.config.Dilation[0],
		DilationW: c.config.Dilation[1],
		Groups:    c.config.Groups,
		Flip:      c.config.Flip,
	}
}

// Parameters returns all trainable parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Config returns the normalized layer configuration.
func (c *Conv2D[B]) Config() Conv2DConfig {
	return c.config
}

// StateDict returns a map of parameter names to raw tensors.
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(c.Parameters())
}

// LoadStateDict loads parameters from a state dictionary.
func (c *Conv2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(c.Parameters(), stateDict)
}
