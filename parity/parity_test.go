// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package parity_test

import (
	"math/rand"
	"testing"

	"github.com/ember-ml/ember/nn"
	"github.com/ember-ml/ember/parity"
	"github.com/ember-ml/ember/tensor"
)

// A smoke test of the public surface. Skips when no device is available.
func TestLinearParity(t *testing.T) {
	input := tensor.MustNewRaw(tensor.Shape{4, 16}, tensor.Float32, tensor.CPU)
	rng := rand.New(rand.NewSource(42))
	data := input.AsFloat32()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}

	parity.CheckLayers(t, "linear", []parity.Factory{
		func(backend tensor.Backend, rng *rand.Rand) (nn.StatefulModule[tensor.Backend], error) {
			return nn.NewLinear[tensor.Backend](16, 8, true, rng, backend)
		},
	}, input, true)
}
