// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, ConvTranspose2D
//   - Pooling: MaxPool2D, MeanPool2D and adaptive variants
//   - Regularizers: Dropout, AlphaDropout
//   - Normalization: LayerNorm, BatchNorm2D, InstanceNorm2D, GroupNorm
//   - Utilities: Module interface, Parameter, Normalise
//   - Initialization: Xavier, Zeros, Ones
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/ember-ml/ember/backend/cpu"
//	    "github.com/ember-ml/ember/nn"
//	    "github.com/ember-ml/ember/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(1))
//
//	    layer, err := nn.NewLinear(784, 128, true, rng, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    x := tensor.Zeros[float32](tensor.Shape{32, 784}, backend)
//	    y := layer.Forward(x)
//	    _ = y
//	}
//
// # State Dictionaries
//
// Every layer implements StatefulModule: its parameters can be exported
// with StateDict and re-imported by name with LoadStateDict. State
// transfer works across backends because raw tensor buffers stay
// host-visible on every device.
//
// # Training vs Eval
//
// Layers with mode-dependent behavior (Dropout, AlphaDropout,
// BatchNorm2D) expose SetEval. All layers run in training mode by
// default.
package nn
