package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/ember-ml/ember/internal/backend/cpu"
	"github.com/ember-ml/ember/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if !x.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("shape: got %v", x.Shape())
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2): got %v, expected 6", x.At(1, 2))
	}

	if _, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend); err == nil {
		t.Error("expected error for length/shape mismatch")
	}
}

func TestTensor_OpChaining(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	// ((x + x) * 2 - x).Sum() = sum(3x) = 3 * 10 = 30
	sum := x.Add(x).MulScalar(2).Sub(x).Sum()
	if got := sum.Item(); got != 30 {
		t.Errorf("chained ops: got %v, expected 30", got)
	}
}

func TestTensor_ReshapeTranspose(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	r := x.Reshape(3, 2)
	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Reshape: got %v", r.Shape())
	}

	tr := x.Transpose()
	if !tr.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Transpose: got %v", tr.Shape())
	}
	if tr.At(2, 1) != 6 {
		t.Errorf("Transpose At(2,1): got %v, expected 6", tr.At(2, 1))
	}
}

func TestTensor_MeanDim(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	m := x.MeanDim(1, true)
	if !m.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("MeanDim shape: got %v", m.Shape())
	}
	if m.At(0, 0) != 2 || m.At(1, 0) != 5 {
		t.Errorf("MeanDim values: got %v, %v", m.At(0, 0), m.At(1, 0))
	}
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	z := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	for _, v := range z.Data() {
		if v != 0 {
			t.Fatal("Zeros produced nonzero element")
		}
	}

	o := tensor.Ones[float32](tensor.Shape{2, 2}, backend)
	for _, v := range o.Data() {
		if v != 1 {
			t.Fatal("Ones produced non-one element")
		}
	}

	f := tensor.Full[float32](tensor.Shape{3}, 7, backend)
	for _, v := range f.Data() {
		if v != 7 {
			t.Fatal("Full produced wrong element")
		}
	}
}

func TestRandn_Deterministic(t *testing.T) {
	backend := cpu.New()

	a := tensor.Randn(tensor.Shape{16}, rand.New(rand.NewSource(3)), backend)
	b := tensor.Randn(tensor.Shape{16}, rand.New(rand.NewSource(3)), backend)

	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Fatal("Randn with equal seeds must produce equal data")
		}
	}
}
