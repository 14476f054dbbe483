package parity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-ml/ember/internal/autodiff"
	"github.com/ember-ml/ember/internal/backend/cpu"
	"github.com/ember-ml/ember/internal/nn"
	"github.com/ember-ml/ember/internal/tensor"
)

// The harness compared against a second CPU backend must pass for every
// deterministic layer kind, device or not.
func TestHarnessCPUAgainstCPU(t *testing.T) {
	checkLayers(t, "linear", []Factory{
		func(backend tensor.Backend, rng *rand.Rand) (nn.StatefulModule[tensor.Backend], error) {
			return nn.NewLinear[tensor.Backend](16, 8, true, rng, backend)
		},
	}, randInput(71, 4, 16), true, cpu.New())

	checkLayers(t, "conv2d", []Factory{
		conv2dFactory(3, 4, 3, 3, nn.Conv2DConfig{Bias: true}),
	}, randInput(72, 2, 3, 8, 8), true, cpu.New())

	// Dilated convolution is only rejected by the real device backend;
	// against a CPU reference it must compare normally.
	checkLayers(t, "conv2d_dilated", []Factory{
		conv2dFactory(3, 4, 3, 3, nn.Conv2DConfig{Dilation: [2]int{2, 2}}),
	}, randInput(73, 2, 3, 8, 8), true, cpu.New())
}

func TestBrokenOnDeviceClassification(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	plain, err := nn.NewConv2D[tensor.Backend](3, 4, 3, 3, nn.Conv2DConfig{}, rng, backend)
	require.NoError(t, err)
	require.False(t, BrokenOnDevice(plain))

	dilated, err := nn.NewConv2D[tensor.Backend](3, 4, 3, 3, nn.Conv2DConfig{Dilation: [2]int{2, 2}}, rng, backend)
	require.NoError(t, err)
	require.True(t, BrokenOnDevice(dilated))

	transposed, err := nn.NewConvTranspose2D[tensor.Backend](4, 4, 3, 3, nn.ConvTranspose2DConfig{}, rng, backend)
	require.NoError(t, err)
	require.False(t, BrokenOnDevice(transposed))

	grouped, err := nn.NewConvTranspose2D[tensor.Backend](4, 4, 3, 3, nn.ConvTranspose2DConfig{Groups: 2}, rng, backend)
	require.NoError(t, err)
	require.True(t, BrokenOnDevice(grouped))
}

func TestCloseScalar(t *testing.T) {
	require.True(t, closeScalar(1.0, 1.0))
	require.True(t, closeScalar(1.0, 1.00005))
	require.False(t, closeScalar(1.0, 1.001))
	require.True(t, closeScalar(0, 5e-5))
	require.False(t, closeScalar(0, 5e-4))
}

// A no-bias convolution over an all-zero input sums to exactly zero, and
// no bias shows up among the parameters or their gradients.
func TestZeroInputZeroSum(t *testing.T) {
	ad := autodiff.New(tensor.Backend(cpu.New()))
	layer, err := nn.NewConv2D[tensor.Backend](3, 4, 3, 3, nn.Conv2DConfig{}, rand.New(rand.NewSource(1)), tensor.Backend(ad))
	require.NoError(t, err)

	x := tensor.New[float32, tensor.Backend](zeroInput(2, 3, 8, 8), ad)
	sum := layer.Forward(x).Sum()
	require.Equal(t, float32(0), sum.Raw().AsFloat32()[0])

	require.Len(t, layer.Parameters(), 1)
	require.Equal(t, "weight", layer.Parameters()[0].Name())

	grads := autodiff.Backward(sum.Raw(), ad)
	_, ok := grads[layer.Parameters()[0].Tensor().Raw()]
	require.True(t, ok, "weight gradient missing")
}

// One channel in, three out, 2x2 kernel, all-zero 28x28 image: the
// summed output is exactly zero and no bias appears in the gradient map.
func TestZeroImageScenario(t *testing.T) {
	ad := autodiff.New(tensor.Backend(cpu.New()))
	layer, err := nn.NewConv2D[tensor.Backend](1, 3, 2, 2, nn.Conv2DConfig{}, rand.New(rand.NewSource(2)), tensor.Backend(ad))
	require.NoError(t, err)

	x := tensor.New[float32, tensor.Backend](zeroInput(1, 1, 28, 28), ad)
	sum := layer.Forward(x).Sum()
	require.Equal(t, float32(0), sum.Raw().AsFloat32()[0])

	grads := autodiff.Backward(sum.Raw(), ad)
	for _, p := range layer.Parameters() {
		require.NotEqual(t, "bias", p.Name())
	}
	for _, p := range layer.Parameters() {
		_, ok := grads[p.Tensor().Raw()]
		require.True(t, ok, "gradient missing for %s", p.Name())
	}
}

// A fresh Linear bias starts at exactly zero, so a with-bias layer is
// numerically identical to a no-bias one until training moves it.
func TestLinearZeroBiasSentinel(t *testing.T) {
	backend := cpu.New()
	layer, err := nn.NewLinear[tensor.Backend](16, 8, true, rand.New(rand.NewSource(1)), tensor.Backend(backend))
	require.NoError(t, err)

	state := layer.StateDict()
	bias, ok := state["bias"]
	require.True(t, ok)
	for _, v := range bias.AsFloat32() {
		require.Equal(t, float32(0), v)
	}
}
