package cpu

import (
	"testing"

	"github.com/ember-ml/ember/internal/tensor"
)

// Helper to build a float32 tensor from literal data.
func rawFrom(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

func TestBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

func TestBackend_Add(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawFrom(t, tensor.Shape{2, 3}, []float32{10, 11, 12, 13, 14, 15})

		result := backend.Add(a, b)

		expected := []float32{11, 13, 15, 17, 19, 21}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BroadcastRow", func(t *testing.T) {
		// [2,3] + [1,3] broadcasts the row across both rows.
		a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawFrom(t, tensor.Shape{1, 3}, []float32{10, 20, 30})

		result := backend.Add(a, b)

		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("broadcast shape: got %v", result.Shape())
		}
		expected := []float32{11, 22, 33, 14, 25, 36}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("broadcast Add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BroadcastScalarShape", func(t *testing.T) {
		// [2,2] + [1,1]
		a := rawFrom(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
		b := rawFrom(t, tensor.Shape{1, 1}, []float32{100})

		result := backend.Add(a, b)

		expected := []float32{101, 102, 103, 104}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("got %v, expected %v", result.AsFloat32(), expected)
		}
	})
}

func TestBackend_SubMulDiv(t *testing.T) {
	backend := New()
	a := rawFrom(t, tensor.Shape{4}, []float32{10, 20, 30, 40})
	b := rawFrom(t, tensor.Shape{4}, []float32{1, 2, 3, 4})

	if got := backend.Sub(a, b).AsFloat32(); !float32SliceEqual(got, []float32{9, 18, 27, 36}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := backend.Mul(a, b).AsFloat32(); !float32SliceEqual(got, []float32{10, 40, 90, 160}) {
		t.Errorf("Mul: got %v", got)
	}
	if got := backend.Div(a, b).AsFloat32(); !float32SliceEqual(got, []float32{10, 10, 10, 10}) {
		t.Errorf("Div: got %v", got)
	}
}

func TestBackend_ScalarOps(t *testing.T) {
	backend := New()
	x := rawFrom(t, tensor.Shape{3}, []float32{1, 4, 9})

	if got := backend.AddScalar(x, 1).AsFloat32(); !float32SliceEqual(got, []float32{2, 5, 10}) {
		t.Errorf("AddScalar: got %v", got)
	}
	if got := backend.SubScalar(x, 1).AsFloat32(); !float32SliceEqual(got, []float32{0, 3, 8}) {
		t.Errorf("SubScalar: got %v", got)
	}
	if got := backend.MulScalar(x, 2).AsFloat32(); !float32SliceEqual(got, []float32{2, 8, 18}) {
		t.Errorf("MulScalar: got %v", got)
	}
	if got := backend.DivScalar(x, 2).AsFloat32(); !float32SliceEqual(got, []float32{0.5, 2, 4.5}) {
		t.Errorf("DivScalar: got %v", got)
	}
	if got := backend.Sqrt(x).AsFloat32(); !float32SliceEqual(got, []float32{1, 2, 3}) {
		t.Errorf("Sqrt: got %v", got)
	}
	if got := backend.Rsqrt(x).AsFloat32(); !float32SliceEqual(got, []float32{1, 0.5, 1.0 / 3.0}) {
		t.Errorf("Rsqrt: got %v", got)
	}
}

func TestBackend_MatMul(t *testing.T) {
	backend := New()

	// [2,3] @ [3,2]:
	// [1 2 3]   [7  8 ]   [58  64 ]
	// [4 5 6] @ [9  10] = [139 154]
	//           [11 12]
	a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFrom(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	result := backend.MatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape: got %v", result.Shape())
	}
	expected := []float32{58, 64, 139, 154}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("MatMul: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBackend_Transpose(t *testing.T) {
	backend := New()

	t.Run("Default2D", func(t *testing.T) {
		a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		result := backend.Transpose(a)
		if !result.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("shape: got %v", result.Shape())
		}
		expected := []float32{1, 4, 2, 5, 3, 6}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Permute3D", func(t *testing.T) {
		// [2,1,3] with axes (1,2,0) -> [1,3,2]
		a := rawFrom(t, tensor.Shape{2, 1, 3}, []float32{1, 2, 3, 4, 5, 6})
		result := backend.Transpose(a, 1, 2, 0)
		if !result.Shape().Equal(tensor.Shape{1, 3, 2}) {
			t.Fatalf("shape: got %v", result.Shape())
		}
		expected := []float32{1, 4, 2, 5, 3, 6}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("got %v, expected %v", result.AsFloat32(), expected)
		}
	})
}

func TestBackend_Reshape(t *testing.T) {
	backend := New()
	a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Reshape(a, tensor.Shape{3, 2})
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape: got %v", result.Shape())
	}
	// Reshape keeps row-major order.
	if !float32SliceEqual(result.AsFloat32(), a.AsFloat32()) {
		t.Errorf("data changed: got %v", result.AsFloat32())
	}
}

func TestBackend_Sum(t *testing.T) {
	backend := New()
	a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Sum(a)
	if len(result.Shape()) != 0 {
		t.Fatalf("Sum must produce a 0-d tensor, got shape %v", result.Shape())
	}
	if got := result.AsFloat32()[0]; got != 21 {
		t.Errorf("Sum: got %v, expected 21", got)
	}
}

func TestBackend_SumDim(t *testing.T) {
	backend := New()
	a := rawFrom(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	t.Run("Dim0", func(t *testing.T) {
		result := backend.SumDim(a, 0, false)
		if !result.Shape().Equal(tensor.Shape{3}) {
			t.Fatalf("shape: got %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{5, 7, 9}) {
			t.Errorf("got %v", result.AsFloat32())
		}
	})

	t.Run("Dim1KeepDim", func(t *testing.T) {
		result := backend.SumDim(a, 1, true)
		if !result.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("shape: got %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{6, 15}) {
			t.Errorf("got %v", result.AsFloat32())
		}
	})

	t.Run("Mean", func(t *testing.T) {
		result := backend.MeanDim(a, 1, true)
		if !float32SliceEqual(result.AsFloat32(), []float32{2, 5}) {
			t.Errorf("got %v", result.AsFloat32())
		}
	})
}
