// Copyright 2026 The Ember ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/ember-ml/ember/backend/cpu"
	"github.com/ember-ml/ember/nn"
	"github.com/ember-ml/ember/tensor"
)

// TestStatefulModuleInterface verifies that every layer satisfies the
// StatefulModule interface.
func TestStatefulModuleInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	build := map[string]func() (nn.StatefulModule[*cpu.Backend], error){
		"Linear": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewLinear(4, 2, true, rng, backend)
		},
		"Conv2D": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewConv2D(1, 2, 3, 3, nn.Conv2DConfig{Bias: true}, rng, backend)
		},
		"ConvTranspose2D": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewConvTranspose2D(2, 2, 3, 3, nn.ConvTranspose2DConfig{}, rng, backend)
		},
		"MaxPool2D": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewMaxPool2D(2, 2, 0, 0, backend)
		},
		"AdaptiveMeanPool2D": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewAdaptiveMeanPool2D(2, 2, backend)
		},
		"Dropout": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewDropout(0.5, rng, backend)
		},
		"LayerNorm": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewLayerNorm(tensor.Shape{4}, 0, backend)
		},
		"BatchNorm2D": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewBatchNorm2D(3, 0, 0, backend)
		},
		"GroupNorm": func() (nn.StatefulModule[*cpu.Backend], error) {
			return nn.NewGroupNorm(2, 4, 0, backend)
		},
	}

	for name, f := range build {
		t.Run(name, func(t *testing.T) {
			m, err := f()
			if err != nil {
				t.Fatalf("constructor failed: %v", err)
			}
			if m == nil {
				t.Fatal("constructor returned nil module")
			}
		})
	}
}

// TestLinearFacade exercises a layer through the public packages only.
func TestLinearFacade(t *testing.T) {
	backend := cpu.New()
	layer, err := nn.NewLinear(3, 2, false, rand.New(rand.NewSource(7)), backend)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}

	x := tensor.Zeros[float32](tensor.Shape{5, 3}, backend)
	y := layer.Forward(x)
	if !y.Shape().Equal(tensor.Shape{5, 2}) {
		t.Errorf("output shape = %v, want [5 2]", y.Shape())
	}
}
