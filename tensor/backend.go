// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/ember-ml/ember/internal/tensor"

// ConvParams configures a 2D convolution (cross-correlation) kernel.
type ConvParams = tensor.ConvParams

// ConvTransParams configures a 2D transposed convolution kernel.
type ConvTransParams = tensor.ConvTransParams

// PoolParams configures a 2D pooling window.
type PoolParams = tensor.PoolParams

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go reference implementation
//   - backend/webgpu: Cross-platform GPU compute via WebGPU
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
//
// All operations allocate their results; inputs are never modified.
// Backend methods panic on misuse (shape/dtype errors) and on operations
// the backend does not support; fallible setup paths return errors from
// the backend constructor instead.
//
// Backend is an alias of the internal interface, so values and function
// types are interchangeable between the public and internal packages.
type Backend = tensor.Backend

// Conv2DOutputShape computes the forward output shape for Conv2D.
func Conv2DOutputShape(input, kernel Shape, p ConvParams) Shape {
	return tensor.Conv2DOutputShape(input, kernel, p)
}

// ConvTranspose2DOutputShape computes the forward output shape for
// ConvTranspose2D.
func ConvTranspose2DOutputShape(input, kernel Shape, p ConvTransParams) Shape {
	return tensor.ConvTranspose2DOutputShape(input, kernel, p)
}

// Pool2DOutputShape computes the forward output shape for pooling.
func Pool2DOutputShape(input Shape, p PoolParams) Shape {
	return tensor.Pool2DOutputShape(input, p)
}
