// Package parity cross-checks neural network layers between the CPU and
// WebGPU backends. Every layer is built on the host, mirrored onto the
// device by name, run forward to a scalar sum and backward through the
// tape, and the summed outputs, input gradients and per-parameter
// gradients are compared within tolerance.
package parity

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-ml/ember/internal/autodiff"
	"github.com/ember-ml/ember/internal/backend/cpu"
	"github.com/ember-ml/ember/internal/backend/webgpu"
	"github.com/ember-ml/ember/internal/nn"
	"github.com/ember-ml/ember/internal/tensor"
)

// Comparison tolerance, both relative and absolute.
const tolerance = 1e-4

// Factory builds one layer variant on the given backend. The rng drives
// weight initialization; host parameters are mirrored onto the device
// afterwards, so the two sides need not share a seed.
type Factory func(backend tensor.Backend, rng *rand.Rand) (nn.StatefulModule[tensor.Backend], error)

// Func is a parameter-free tensor function checked by CheckFunc.
type Func func(x *tensor.Tensor[float32, tensor.Backend]) *tensor.Tensor[float32, tensor.Backend]

var (
	deviceOnce sync.Once
	device     *webgpu.Backend
	deviceErr  error
)

// deviceBackend acquires the WebGPU backend once per test binary.
func deviceBackend() (*webgpu.Backend, error) {
	deviceOnce.Do(func() {
		device, deviceErr = webgpu.New()
	})
	return device, deviceErr
}

// CheckLayers builds each layer variant on the CPU and on the WebGPU
// device and compares their forward and backward results. Device
// unavailability skips the test. compare=false (stochastic layers) runs
// both sides and the residency check but skips the numeric comparison.
func CheckLayers(t *testing.T, name string, factories []Factory, input *tensor.RawTensor, compare bool) {
	t.Helper()
	dev, err := deviceBackend()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	checkLayers(t, name, factories, input, compare, dev)
}

// CheckFunc is CheckLayers for a pure function of one tensor.
func CheckFunc(t *testing.T, name string, fn Func, input *tensor.RawTensor, compare bool) {
	t.Helper()
	factory := func(backend tensor.Backend, _ *rand.Rand) (nn.StatefulModule[tensor.Backend], error) {
		return funcModule{fn: fn}, nil
	}
	CheckLayers(t, name, []Factory{factory}, input, compare)
}

// checkLayers runs the comparison against an arbitrary reference device
// backend, so the harness logic itself is testable CPU-vs-CPU.
func checkLayers(t *testing.T, name string, factories []Factory, input *tensor.RawTensor, compare bool, dev tensor.Backend) {
	t.Helper()
	if input == nil {
		t.Fatalf("%s: missing input", name)
	}
	for i, factory := range factories {
		t.Run(fmt.Sprintf("%s/%d", name, i), func(t *testing.T) {
			checkOne(t, factory, input, compare, dev)
		})
	}
}

// sideResult captures one backend's forward/backward outcome.
type sideResult struct {
	sum        float32
	inputGrad  *tensor.RawTensor
	paramGrads map[string]*tensor.RawTensor
}

// runSide builds the layer, runs the forward pass to a scalar sum and
// walks the tape backward. mirror, when non-nil, is loaded into the layer
// before the forward pass.
func runSide(factory Factory, input *tensor.RawTensor, inner tensor.Backend, mirror map[string]*tensor.RawTensor) (nn.StatefulModule[tensor.Backend], *sideResult, error) {
	ad := autodiff.New(inner)
	layer, err := factory(ad, rand.New(rand.NewSource(1)))
	if err != nil {
		return nil, nil, err
	}
	if mirror != nil {
		if err := layer.LoadStateDict(mirror); err != nil {
			return nil, nil, err
		}
	}

	x := tensor.New[float32, tensor.Backend](input.CloneTo(inner.Device()), ad)
	sum := layer.Forward(x).Sum()
	grads := autodiff.Backward(sum.Raw(), ad)

	result := &sideResult{
		sum:        sum.Raw().AsFloat32()[0],
		inputGrad:  grads[x.Raw()],
		paramGrads: make(map[string]*tensor.RawTensor),
	}
	for _, p := range layer.Parameters() {
		if g, ok := grads[p.Tensor().Raw()]; ok {
			result.paramGrads[p.Name()] = g
		}
	}
	return layer, result, nil
}

func checkOne(t *testing.T, factory Factory, input *tensor.RawTensor, compare bool, dev tensor.Backend) {
	t.Helper()

	hostLayer, host, err := runSide(factory, input, cpu.New(), nil)
	require.NoError(t, err, "host build failed")

	broken := dev.Device() == tensor.WebGPU && BrokenOnDevice(hostLayer)
	if broken {
		requireDevicePanic(t, factory, input, dev, hostLayer.StateDict())
		return
	}

	_, devSide, err := runSide(factory, input, dev, hostLayer.StateDict())
	require.NoError(t, err, "device build failed")

	// Gradients must live where they were computed, comparison or not.
	if devSide.inputGrad != nil && devSide.inputGrad.Device() != dev.Device() {
		t.Errorf("input gradient on %s, want %s", devSide.inputGrad.Device(), dev.Device())
	}
	for pName, g := range devSide.paramGrads {
		if g.Device() != dev.Device() {
			t.Errorf("gradient of %q on %s, want %s", pName, g.Device(), dev.Device())
		}
	}

	if !compare {
		return
	}

	if !closeScalar(host.sum, devSide.sum) {
		t.Errorf("summed output mismatch: host %v, device %v", host.sum, devSide.sum)
	}
	compareGrad(t, "input", host.inputGrad, devSide.inputGrad)
	for pName, hg := range host.paramGrads {
		compareGrad(t, pName, hg, devSide.paramGrads[pName])
	}
	for pName := range devSide.paramGrads {
		if _, ok := host.paramGrads[pName]; !ok {
			t.Errorf("device produced gradient for %q, host did not", pName)
		}
	}
}

// requireDevicePanic runs the forward and backward pass expecting the
// device backend to reject the configuration; unexpected success is a
// failure.
func requireDevicePanic(t *testing.T, factory Factory, input *tensor.RawTensor, dev tensor.Backend, mirror map[string]*tensor.RawTensor) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected device backend to reject configuration, but it succeeded")
		}
	}()
	_, _, err := runSide(factory, input, dev, mirror)
	require.NoError(t, err, "device build failed")
}

func compareGrad(t *testing.T, name string, host, dev *tensor.RawTensor) {
	t.Helper()
	if host == nil && dev == nil {
		return
	}
	if host == nil || dev == nil {
		t.Errorf("gradient of %q: host present=%v, device present=%v", name, host != nil, dev != nil)
		return
	}
	if !host.Shape().Equal(dev.Shape()) {
		t.Errorf("gradient of %q: shape mismatch %v vs %v", name, host.Shape(), dev.Shape())
		return
	}
	hd, dd := host.AsFloat32(), dev.AsFloat32()
	for i := range hd {
		if !closeScalar(hd[i], dd[i]) {
			t.Errorf("gradient of %q: element %d mismatch: host %v, device %v", name, i, hd[i], dd[i])
			return
		}
	}
}

// closeScalar reports |a-b| <= atol + rtol*|a| with the host value as
// reference.
func closeScalar(a, b float32) bool {
	diff := math.Abs(float64(a) - float64(b))
	return diff <= tolerance+tolerance*math.Abs(float64(a))
}

// BrokenOnDevice reports whether the layer configuration is one the
// WebGPU backend rejects: dilated Conv2D and grouped ConvTranspose2D.
func BrokenOnDevice(layer nn.Module[tensor.Backend]) bool {
	switch l := layer.(type) {
	case *nn.Conv2D[tensor.Backend]:
		cfg := l.Config()
		return cfg.Dilation[0] > 1 || cfg.Dilation[1] > 1
	case *nn.ConvTranspose2D[tensor.Backend]:
		return l.Config().Groups > 1
	default:
		return false
	}
}

// funcModule adapts a pure function to the module interface.
type funcModule struct {
	fn Func
}

func (m funcModule) Forward(x *tensor.Tensor[float32, tensor.Backend]) *tensor.Tensor[float32, tensor.Backend] {
	return m.fn(x)
}

func (m funcModule) Parameters() []*nn.Parameter[tensor.Backend] { return nil }

func (m funcModule) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (m funcModule) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
