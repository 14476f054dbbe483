package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ember-ml/ember/internal/backend/cpu"
	"github.com/ember-ml/ember/internal/nn"
	"github.com/ember-ml/ember/internal/tensor"
)

func newBackend() *cpu.Backend {
	return cpu.New()
}

func fromSlice(t *testing.T, backend *cpu.Backend, shape tensor.Shape, data []float32) *tensor.Tensor[float32, *cpu.Backend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func closeTo(a, b float32) bool {
	diff := float64(a - b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-4+1e-4*math.Abs(float64(a))
}

func TestLinear_Forward(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewLinear(2, 2, true, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}

	// Overwrite initialized parameters with known values.
	copy(layer.StateDict()["weight"].AsFloat32(), []float32{1, 2, 3, 4})
	copy(layer.StateDict()["bias"].AsFloat32(), []float32{10, 20})

	x := fromSlice(t, backend, tensor.Shape{1, 2}, []float32{1, 1})
	y := layer.Forward(x)

	// y = x @ W.T + b = [1+2, 3+4] + [10, 20] = [13, 27]
	if !y.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("shape: got %v", y.Shape())
	}
	if y.At(0, 0) != 13 || y.At(0, 1) != 27 {
		t.Errorf("got [%v %v], expected [13 27]", y.At(0, 0), y.At(0, 1))
	}
}

func TestLinear_Parameters(t *testing.T) {
	backend := newBackend()

	withBias, _ := nn.NewLinear(4, 3, true, rand.New(rand.NewSource(1)), backend)
	if len(withBias.Parameters()) != 2 {
		t.Errorf("with bias: %d parameters, expected 2", len(withBias.Parameters()))
	}

	noBias, _ := nn.NewLinear(4, 3, false, rand.New(rand.NewSource(1)), backend)
	if len(noBias.Parameters()) != 1 {
		t.Errorf("without bias: %d parameters, expected 1", len(noBias.Parameters()))
	}
	if _, ok := noBias.StateDict()["bias"]; ok {
		t.Error("bias must be absent from the no-bias state dict")
	}
}

func TestStateDict_RoundTrip(t *testing.T) {
	backend := newBackend()

	src, _ := nn.NewLinear(8, 4, true, rand.New(rand.NewSource(1)), backend)
	dst, _ := nn.NewLinear(8, 4, true, rand.New(rand.NewSource(99)), backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{2, 8}, make([]float32, 16))
	for i := range x.Data() {
		x.Data()[i] = float32(i) * 0.25
	}
	ys, yd := src.Forward(x), dst.Forward(x)
	for i := range ys.Data() {
		if ys.Data()[i] != yd.Data()[i] {
			t.Fatalf("outputs differ after state transfer at %d: %v vs %v", i, ys.Data()[i], yd.Data()[i])
		}
	}
}

func TestLoadStateDict_Mismatch(t *testing.T) {
	backend := newBackend()

	dst, _ := nn.NewLinear(8, 4, true, rand.New(rand.NewSource(1)), backend)
	other, _ := nn.NewLinear(4, 4, true, rand.New(rand.NewSource(1)), backend)

	if err := dst.LoadStateDict(other.StateDict()); err == nil {
		t.Error("expected shape mismatch error")
	}
	if err := dst.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("expected missing parameter error")
	}
}

func TestConv2D_Validation(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name             string
		inC, outC, k     int
		cfg              nn.Conv2DConfig
	}{
		{"ZeroChannels", 0, 4, 3, nn.Conv2DConfig{}},
		{"ZeroKernel", 3, 4, 0, nn.Conv2DConfig{}},
		{"NegativeStride", 3, 4, 3, nn.Conv2DConfig{Stride: [2]int{-1, 1}}},
		{"NegativePad", 3, 4, 3, nn.Conv2DConfig{Padding: [2]int{-1, 0}}},
		{"NegativeDilation", 3, 4, 3, nn.Conv2DConfig{Dilation: [2]int{-2, 1}}},
		{"GroupsDontDivide", 3, 4, 3, nn.Conv2DConfig{Groups: 2}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := nn.NewConv2D(tt.inC, tt.outC, tt.k, tt.k, tt.cfg, rng, backend); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

// Zero stride, dilation and groups components are defaults, not errors.
func TestConv2D_ZeroConfigNormalized(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewConv2D(3, 4, 3, 3, nn.Conv2DConfig{Stride: [2]int{0, 2}}, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewConv2D: %v", err)
	}

	cfg := layer.Config()
	if cfg.Stride != [2]int{1, 2} {
		t.Errorf("stride: got %v, expected [1 2]", cfg.Stride)
	}
	if cfg.Dilation != [2]int{1, 1} {
		t.Errorf("dilation: got %v, expected [1 1]", cfg.Dilation)
	}
	if cfg.Groups != 1 {
		t.Errorf("groups: got %d, expected 1", cfg.Groups)
	}
}

func TestConv2D_ForwardShape(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewConv2D(3, 8, 3, 3, nn.Conv2DConfig{
		Stride:  [2]int{2, 2},
		Padding: [2]int{1, 1},
		Bias:    true,
	}, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewConv2D: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{2, 3, 8, 8}, make([]float32, 2*3*8*8))
	y := layer.Forward(x)
	if !y.Shape().Equal(tensor.Shape{2, 8, 4, 4}) {
		t.Errorf("shape: got %v, expected [2 8 4 4]", y.Shape())
	}
}

func TestConvTranspose2D_ForwardShape(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewConvTranspose2D(4, 2, 3, 3, nn.ConvTranspose2DConfig{
		Stride: [2]int{2, 2},
	}, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewConvTranspose2D: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{1, 4, 4, 4}, make([]float32, 64))
	y := layer.Forward(x)
	// (4-1)*2 + 3 = 9
	if !y.Shape().Equal(tensor.Shape{1, 2, 9, 9}) {
		t.Errorf("shape: got %v, expected [1 2 9 9]", y.Shape())
	}
}

func TestLayerNorm_Normalizes(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewLayerNorm(tensor.Shape{4}, 0, backend)
	if err != nil {
		t.Fatalf("NewLayerNorm: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 10, 20, 30, 40})
	y := layer.Forward(x)

	// Fresh affine is identity, so every row has zero mean and unit
	// variance (up to eps).
	for row := 0; row < 2; row++ {
		var mean float64
		for col := 0; col < 4; col++ {
			mean += float64(y.At(row, col))
		}
		mean /= 4
		if math.Abs(mean) > 1e-5 {
			t.Errorf("row %d mean = %v, expected 0", row, mean)
		}
		var variance float64
		for col := 0; col < 4; col++ {
			d := float64(y.At(row, col)) - mean
			variance += d * d
		}
		variance /= 4
		if math.Abs(variance-1) > 1e-3 {
			t.Errorf("row %d variance = %v, expected 1", row, variance)
		}
	}
}

func TestBatchNorm_RunningStats(t *testing.T) {
	backend := newBackend()
	// Momentum 1 makes the running stats equal the batch stats.
	layer, err := nn.NewBatchNorm2D(1, 0, 1, backend)
	if err != nil {
		t.Fatalf("NewBatchNorm2D: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	layer.Forward(x)

	state := layer.StateDict()
	if got := state["running_mean"].AsFloat32()[0]; !closeTo(got, 2.5) {
		t.Errorf("running_mean = %v, expected 2.5", got)
	}
	// Biased variance 1.25 corrected by n/(n-1) = 4/3.
	if got := state["running_var"].AsFloat32()[0]; !closeTo(got, 1.25*4.0/3.0) {
		t.Errorf("running_var = %v, expected %v", got, 1.25*4.0/3.0)
	}
}

func TestBatchNorm_Eval(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewBatchNorm2D(2, 0, 0, backend)
	if err != nil {
		t.Fatalf("NewBatchNorm2D: %v", err)
	}
	layer.SetEval(true)

	// Default running stats are mean 0, var 1, so eval output is
	// x / sqrt(1 + eps), i.e. almost the identity.
	x := fromSlice(t, backend, tensor.Shape{1, 2, 1, 2}, []float32{1, 2, 3, 4})
	y := layer.Forward(x)
	for i, v := range x.Data() {
		if !closeTo(y.Data()[i], v) {
			t.Errorf("eval output[%d] = %v, expected ~%v", i, y.Data()[i], v)
		}
	}
}

func TestInstanceNorm_NoAffineHasNoParams(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewInstanceNorm2D(3, 0, false, backend)
	if err != nil {
		t.Fatalf("NewInstanceNorm2D: %v", err)
	}
	if len(layer.Parameters()) != 0 {
		t.Errorf("got %d parameters, expected 0", len(layer.Parameters()))
	}

	affine, err := nn.NewInstanceNorm2D(3, 0, true, backend)
	if err != nil {
		t.Fatalf("NewInstanceNorm2D: %v", err)
	}
	if len(affine.Parameters()) != 2 {
		t.Errorf("got %d parameters, expected 2", len(affine.Parameters()))
	}
}

func TestGroupNorm_Validation(t *testing.T) {
	backend := newBackend()
	if _, err := nn.NewGroupNorm(3, 4, 0, backend); err == nil {
		t.Error("expected error when groups do not divide channels")
	}
	if _, err := nn.NewGroupNorm(2, 4, 0, backend); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestDropout_Eval(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewDropout(0.5, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewDropout: %v", err)
	}
	layer.SetEval(true)

	x := fromSlice(t, backend, tensor.Shape{4}, []float32{1, 2, 3, 4})
	y := layer.Forward(x)
	for i := range x.Data() {
		if y.Data()[i] != x.Data()[i] {
			t.Fatal("eval mode must be the identity")
		}
	}
}

func TestDropout_Train(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewDropout(0.5, rand.New(rand.NewSource(1)), backend)
	if err != nil {
		t.Fatalf("NewDropout: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{64}, make([]float32, 64))
	for i := range x.Data() {
		x.Data()[i] = 1
	}
	y := layer.Forward(x)

	zeros, scaled := 0, 0
	for _, v := range y.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
			scaled++
		default:
			t.Fatalf("unexpected output value %v", v)
		}
	}
	if zeros == 0 || scaled == 0 {
		t.Errorf("expected a mix of dropped and kept elements, got %d/%d", zeros, scaled)
	}
}

func TestDropout_InvalidP(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))
	if _, err := nn.NewDropout(1, rng, backend); err == nil {
		t.Error("p = 1 accepted")
	}
	if _, err := nn.NewDropout(-0.1, rng, backend); err == nil {
		t.Error("p < 0 accepted")
	}
	if _, err := nn.NewAlphaDropout(1, rng, backend); err == nil {
		t.Error("alpha dropout p = 1 accepted")
	}
}

func TestAdaptivePool(t *testing.T) {
	backend := newBackend()

	layer, err := nn.NewAdaptiveMaxPool2D(2, 2, backend)
	if err != nil {
		t.Fatalf("NewAdaptiveMaxPool2D: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	y := layer.Forward(x)
	if !y.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape: got %v", y.Shape())
	}
	want := []float32{6, 8, 14, 16}
	for i, v := range want {
		if y.Data()[i] != v {
			t.Errorf("output[%d] = %v, expected %v", i, y.Data()[i], v)
		}
	}
}

func TestAdaptivePool_NonDivisible(t *testing.T) {
	backend := newBackend()
	layer, err := nn.NewAdaptiveMeanPool2D(3, 3, backend)
	if err != nil {
		t.Fatalf("NewAdaptiveMeanPool2D: %v", err)
	}

	x := fromSlice(t, backend, tensor.Shape{1, 1, 4, 4}, make([]float32, 16))
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-divisible input size")
		}
	}()
	layer.Forward(x)
}

func TestNormalise(t *testing.T) {
	backend := newBackend()

	x := fromSlice(t, backend, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 10, 20, 30, 40})
	y := nn.Normalise(x)

	var mean float64
	for _, v := range y.Data() {
		mean += float64(v)
	}
	mean /= float64(len(y.Data()))
	if math.Abs(mean) > 1e-5 {
		t.Errorf("mean = %v, expected 0", mean)
	}

	var variance float64
	for _, v := range y.Data() {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(y.Data()))
	// Normalise divides by std + eps, so variance is just under 1.
	if math.Abs(variance-1) > 1e-2 {
		t.Errorf("variance = %v, expected ~1", variance)
	}
}
