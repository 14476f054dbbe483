// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements the reference CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Direct-loop convolution and pooling kernels
//   - NumPy-compatible broadcasting
//   - Worker-pool parallelism for the heavy kernels
//
// # Basic Usage
//
//	import (
//	    "github.com/ember-ml/ember/backend/cpu"
//	    "github.com/ember-ml/ember/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
//
// # Role
//
// The CPU backend is the numerical reference: every other backend is
// validated against it element by element. Its kernels favor obvious,
// auditable loops over clever blocking, with parallelism layered on the
// independent outer dimensions only.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation is
// isolated and does not share mutable state.
package cpu
