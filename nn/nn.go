// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/ember-ml/ember/internal/nn"
	"github.com/ember-ml/ember/internal/tensor"
)

// Module is the base interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// StatefulModule is a Module whose parameters can be exported and
// re-imported by name via StateDict and LoadStateDict.
type StatefulModule[B tensor.Backend] = nn.StatefulModule[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewSource(1))
//	layer, err := nn.NewLinear(784, 128, true, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, rng *rand.Rand, backend B) (*Linear[B], error) {
	return nn.NewLinear(inFeatures, outFeatures, useBias, rng, backend)
}

// Conv2DConfig configures a Conv2D layer. The zero value means stride 1,
// no padding, no dilation, a single group, cross-correlation, no bias.
type Conv2DConfig = nn.Conv2DConfig

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	conv, err := nn.NewConv2D(1, 32, 3, 3, nn.Conv2DConfig{
//	    Padding: [2]int{1, 1},
//	    Bias:    true,
//	}, rng, backend)
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW int, config Conv2DConfig, rng *rand.Rand, backend B) (*Conv2D[B], error) {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, config, rng, backend)
}

// ConvTranspose2DConfig configures a ConvTranspose2D layer.
type ConvTranspose2DConfig = nn.ConvTranspose2DConfig

// ConvTranspose2D represents a 2D transposed convolutional layer.
type ConvTranspose2D[B tensor.Backend] = nn.ConvTranspose2D[B]

// NewConvTranspose2D creates a new 2D transposed convolutional layer.
func NewConvTranspose2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW int, config ConvTranspose2DConfig, rng *rand.Rand, backend B) (*ConvTranspose2D[B], error) {
	return nn.NewConvTranspose2D(inChannels, outChannels, kernelH, kernelW, config, rng, backend)
}

// Pooling

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer. A zero stride
// defaults to the kernel size.
func NewMaxPool2D[B tensor.Backend](kernelH, kernelW, strideH, strideW int, backend B) (*MaxPool2D[B], error) {
	return nn.NewMaxPool2D(kernelH, kernelW, strideH, strideW, backend)
}

// MeanPool2D represents a 2D mean (average) pooling layer.
type MeanPool2D[B tensor.Backend] = nn.MeanPool2D[B]

// NewMeanPool2D creates a new 2D mean pooling layer. A zero stride
// defaults to the kernel size.
func NewMeanPool2D[B tensor.Backend](kernelH, kernelW, strideH, strideW int, backend B) (*MeanPool2D[B], error) {
	return nn.NewMeanPool2D(kernelH, kernelW, strideH, strideW, backend)
}

// AdaptiveMaxPool2D pools to a fixed output size. The input spatial
// dimensions must be divisible by the output size.
type AdaptiveMaxPool2D[B tensor.Backend] = nn.AdaptiveMaxPool2D[B]

// NewAdaptiveMaxPool2D creates an adaptive max pooling layer.
func NewAdaptiveMaxPool2D[B tensor.Backend](outH, outW int, backend B) (*AdaptiveMaxPool2D[B], error) {
	return nn.NewAdaptiveMaxPool2D(outH, outW, backend)
}

// AdaptiveMeanPool2D pools to a fixed output size. The input spatial
// dimensions must be divisible by the output size.
type AdaptiveMeanPool2D[B tensor.Backend] = nn.AdaptiveMeanPool2D[B]

// NewAdaptiveMeanPool2D creates an adaptive mean pooling layer.
func NewAdaptiveMeanPool2D[B tensor.Backend](outH, outW int, backend B) (*AdaptiveMeanPool2D[B], error) {
	return nn.NewAdaptiveMeanPool2D(outH, outW, backend)
}

// Regularizers

// Dropout randomly zeroes elements during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand, backend B) (*Dropout[B], error) {
	return nn.NewDropout(p, rng, backend)
}

// AlphaDropout is the SELU-companion dropout.
type AlphaDropout[B tensor.Backend] = nn.AlphaDropout[B]

// NewAlphaDropout creates an alpha dropout layer with drop probability p
// in [0, 1).
func NewAlphaDropout[B tensor.Backend](p float64, rng *rand.Rand, backend B) (*AlphaDropout[B], error) {
	return nn.NewAlphaDropout(p, rng, backend)
}

// Normalization

// LayerNorm normalizes over the trailing dimensions of the input.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization layer over the given
// trailing shape. A zero eps defaults to 1e-5.
func NewLayerNorm[B tensor.Backend](normShape tensor.Shape, eps float64, backend B) (*LayerNorm[B], error) {
	return nn.NewLayerNorm(normShape, eps, backend)
}

// BatchNorm2D normalizes [N,C,H,W] input per channel with tracked
// running statistics.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer over C channels.
// A zero eps defaults to 1e-5 and a zero momentum to 0.1.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, eps, momentum float64, backend B) (*BatchNorm2D[B], error) {
	return nn.NewBatchNorm2D(numFeatures, eps, momentum, backend)
}

// InstanceNorm2D normalizes each sample's channels independently.
type InstanceNorm2D[B tensor.Backend] = nn.InstanceNorm2D[B]

// NewInstanceNorm2D creates an instance normalization layer over C
// channels, optionally with a learned affine transform.
func NewInstanceNorm2D[B tensor.Backend](numFeatures int, eps float64, affine bool, backend B) (*InstanceNorm2D[B], error) {
	return nn.NewInstanceNorm2D(numFeatures, eps, affine, backend)
}

// GroupNorm normalizes channel groups within each sample.
type GroupNorm[B tensor.Backend] = nn.GroupNorm[B]

// NewGroupNorm creates a group normalization layer. numGroups must
// divide numFeatures.
func NewGroupNorm[B tensor.Backend](numGroups, numFeatures int, eps float64, backend B) (*GroupNorm[B], error) {
	return nn.NewGroupNorm(numGroups, numFeatures, eps, backend)
}

// Normalise shifts and scales x to zero mean and unit standard deviation
// along the given dimensions, or over the whole tensor when no dimension
// is given. It is a pure function with no parameters.
func Normalise[B tensor.Backend](x *tensor.Tensor[float32, B], dims ...int) *tensor.Tensor[float32, B] {
	return nn.Normalise(x, dims...)
}

// Initialization

// Xavier fills a tensor using Xavier (Glorot) uniform initialization.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}

// Zeros creates a tensor filled with zeros. Commonly used for bias
// initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
