// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package parity checks that neural network layers produce the same
// forward values and gradients on the CPU and WebGPU backends.
//
// A check builds the same layer on both backends, mirrors parameters by
// name, runs a forward pass to a scalar sum, backpropagates, and
// compares the sums and every gradient element within tolerance.
// Layer configurations the device backend rejects are expected to panic
// there while still running on the CPU.
//
// Example:
//
//	func TestMyLayer(t *testing.T) {
//	    parity.CheckLayers(t, "linear", []parity.Factory{
//	        func(backend tensor.Backend, rng *rand.Rand) (nn.StatefulModule[tensor.Backend], error) {
//	            return nn.NewLinear[tensor.Backend](16, 8, true, rng, backend)
//	        },
//	    }, input, true)
//	}
package parity

import (
	"testing"

	"github.com/ember-ml/ember/internal/parity"
	"github.com/ember-ml/ember/internal/tensor"
	"github.com/ember-ml/ember/nn"
)

// Factory builds a fresh layer on the given backend. The rng makes
// parameter initialization reproducible per side.
type Factory = parity.Factory

// Func is a parameterless tensor transformation checked for parity.
type Func = parity.Func

// CheckLayers runs every factory against the device backend and compares
// the scalar forward sum plus all gradients with the CPU reference.
// Skips when no device backend is available. With compare false only
// execution and gradient residency are checked, not values; use it for
// stochastic layers.
func CheckLayers(t *testing.T, name string, factories []Factory, input *tensor.RawTensor, compare bool) {
	t.Helper()
	parity.CheckLayers(t, name, factories, input, compare)
}

// CheckFunc checks a pure tensor function for CPU/device parity.
func CheckFunc(t *testing.T, name string, fn Func, input *tensor.RawTensor, compare bool) {
	t.Helper()
	parity.CheckFunc(t, name, fn, input, compare)
}

// BrokenOnDevice reports whether the layer uses a configuration the
// device backend rejects (dilated convolution, grouped transposed
// convolution).
func BrokenOnDevice(layer nn.Module[tensor.Backend]) bool {
	return parity.BrokenOnDevice(layer)
}
