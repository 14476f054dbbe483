package autodiff_test

import (
	"math"
	"testing"

	"github.com/ember-ml/ember/internal/autodiff"
	"github.com/ember-ml/ember/internal/backend/cpu"
	"github.com/ember-ml/ember/internal/tensor"
)

func newTape() *autodiff.Backend[tensor.Backend] {
	return autodiff.New(tensor.Backend(cpu.New()))
}

func rawFrom(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func closeTo(a, b float32) bool {
	diff := float64(a - b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-3+1e-3*math.Abs(float64(a))
}

func TestBackward_AddMul(t *testing.T) {
	ad := newTape()

	a := rawFrom(t, tensor.Shape{3}, []float32{1, 2, 3})
	b := rawFrom(t, tensor.Shape{3}, []float32{4, 5, 6})

	// L = sum(a * b + a). dL/da = b + 1, dL/db = a.
	sum := ad.Sum(ad.Add(ad.Mul(a, b), a))
	grads := autodiff.Backward(sum, ad)

	ga, ok := grads[a]
	if !ok {
		t.Fatal("missing gradient for a")
	}
	for i, want := range []float32{5, 6, 7} {
		if !closeTo(ga.AsFloat32()[i], want) {
			t.Errorf("dL/da[%d] = %v, want %v", i, ga.AsFloat32()[i], want)
		}
	}

	gb, ok := grads[b]
	if !ok {
		t.Fatal("missing gradient for b")
	}
	for i, want := range []float32{1, 2, 3} {
		if !closeTo(gb.AsFloat32()[i], want) {
			t.Errorf("dL/db[%d] = %v, want %v", i, gb.AsFloat32()[i], want)
		}
	}
}

func TestBackward_Accumulation(t *testing.T) {
	ad := newTape()

	x := rawFrom(t, tensor.Shape{2}, []float32{3, 4})

	// x contributes through both branches: d(sum(x + x))/dx = 2.
	sum := ad.Sum(ad.Add(x, x))
	grads := autodiff.Backward(sum, ad)

	gx := grads[x]
	if gx == nil {
		t.Fatal("missing gradient for x")
	}
	for i := range gx.AsFloat32() {
		if !closeTo(gx.AsFloat32()[i], 2) {
			t.Errorf("dL/dx[%d] = %v, want 2", i, gx.AsFloat32()[i])
		}
	}
}

// Differentiating an intermediate tensor must seed that tensor, not the
// last operation on the tape; ops recorded past it get no gradient.
func TestBackward_IntermediateRoot(t *testing.T) {
	ad := newTape()

	x := rawFrom(t, tensor.Shape{3}, []float32{1, 2, 3})

	y := ad.Add(x, x)
	ad.Mul(y, y) // recorded after the root, must not contribute

	grads := autodiff.Backward(y, ad)
	gx := grads[x]
	if gx == nil {
		t.Fatal("missing gradient for x")
	}
	for i := range gx.AsFloat32() {
		if !closeTo(gx.AsFloat32()[i], 2) {
			t.Errorf("dy/dx[%d] = %v, want 2", i, gx.AsFloat32()[i])
		}
	}
}

func TestBackward_RecordingRestored(t *testing.T) {
	ad := newTape()

	x := rawFrom(t, tensor.Shape{2}, []float32{1, 2})
	sum := ad.Sum(x)

	before := ad.Tape().NumOps()
	autodiff.Backward(sum, ad)
	if ad.Tape().NumOps() != before {
		t.Errorf("backward recorded %d extra ops", ad.Tape().NumOps()-before)
	}
	if !ad.Tape().IsRecording() {
		t.Error("recording must be restored after backward")
	}
}

// checkGrad compares a tape gradient against central finite differences
// of the given loss.
func checkGrad(t *testing.T, name string, x *tensor.RawTensor, got *tensor.RawTensor, loss func(*tensor.RawTensor) float32) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: missing gradient", name)
	}
	const eps = 1e-2
	data := x.AsFloat32()
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := loss(x)
		data[i] = orig - eps
		minus := loss(x)
		data[i] = orig

		numeric := (plus - minus) / (2 * eps)
		if !closeTo(got.AsFloat32()[i], numeric) {
			t.Errorf("%s[%d]: tape %v, finite difference %v", name, i, got.AsFloat32()[i], numeric)
		}
	}
}

func TestBackward_MatMulFiniteDifference(t *testing.T) {
	host := cpu.New()

	a := rawFrom(t, tensor.Shape{2, 3}, []float32{0.5, -1, 2, 0.25, 1.5, -0.75})
	b := rawFrom(t, tensor.Shape{3, 2}, []float32{1, -0.5, 0.75, 2, -1.25, 0.5})

	ad := newTape()
	sum := ad.Sum(ad.MatMul(a, b))
	grads := autodiff.Backward(sum, ad)

	checkGrad(t, "a", a, grads[a], func(x *tensor.RawTensor) float32 {
		return host.Sum(host.MatMul(x, b)).AsFloat32()[0]
	})
	checkGrad(t, "b", b, grads[b], func(x *tensor.RawTensor) float32 {
		return host.Sum(host.MatMul(a, x)).AsFloat32()[0]
	})
}

func TestBackward_Conv2DFiniteDifference(t *testing.T) {
	host := cpu.New()
	p := tensor.ConvParams{StrideH: 1, StrideW: 1, PadH: 1, PadW: 1, DilationH: 1, DilationW: 1, Groups: 1}

	input := rawFrom(t, tensor.Shape{1, 1, 3, 3}, []float32{
		0.5, -1, 2,
		0.25, 1.5, -0.75,
		-0.5, 1, 0.75,
	})
	kernel := rawFrom(t, tensor.Shape{1, 1, 2, 2}, []float32{1, -0.5, 0.75, 2})

	ad := newTape()
	sum := ad.Sum(ad.Conv2D(input, kernel, p))
	grads := autodiff.Backward(sum, ad)

	checkGrad(t, "input", input, grads[input], func(x *tensor.RawTensor) float32 {
		return host.Sum(host.Conv2D(x, kernel, p)).AsFloat32()[0]
	})
	checkGrad(t, "kernel", kernel, grads[kernel], func(x *tensor.RawTensor) float32 {
		return host.Sum(host.Conv2D(input, x, p)).AsFloat32()[0]
	})
}

func TestBackward_NormChainFiniteDifference(t *testing.T) {
	host := cpu.New()

	x := rawFrom(t, tensor.Shape{2, 4}, []float32{0.5, -1, 2, 0.25, 1.5, -0.75, -0.5, 1})

	normSum := func(b tensor.Backend, in *tensor.RawTensor) *tensor.RawTensor {
		mean := b.MeanDim(in, 1, true)
		centered := b.Sub(in, mean)
		variance := b.MeanDim(b.Mul(centered, centered), 1, true)
		return b.Sum(b.Mul(b.Mul(centered, b.Rsqrt(b.AddScalar(variance, 1e-5))), in))
	}

	ad := newTape()
	sum := normSum(ad, x)
	grads := autodiff.Backward(sum, ad)

	checkGrad(t, "x", x, grads[x], func(in *tensor.RawTensor) float32 {
		return normSum(host, in).AsFloat32()[0]
	})
}

func TestBackward_MaxPoolFiniteDifference(t *testing.T) {
	host := cpu.New()
	p := tensor.PoolParams{KernelH: 2, KernelW: 2, StrideH: 2, StrideW: 2}

	// Distinct values keep the argmax stable under the probe step.
	input := rawFrom(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	ad := newTape()
	sum := ad.Sum(ad.MaxPool2D(input, p))
	grads := autodiff.Backward(sum, ad)

	checkGrad(t, "input", input, grads[input], func(x *tensor.RawTensor) float32 {
		return host.Sum(host.MaxPool2D(x, p)).AsFloat32()[0]
	})
}
