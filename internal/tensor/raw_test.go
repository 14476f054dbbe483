package tensor

import "testing"

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements: got %d, expected 6", raw.NumElements())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize: got %d, expected 24", raw.ByteSize())
	}
	if raw.DType() != Float32 {
		t.Errorf("DType: got %v", raw.DType())
	}
	if raw.Device() != CPU {
		t.Errorf("Device: got %v", raw.Device())
	}
	for _, v := range raw.AsFloat32() {
		if v != 0 {
			t.Fatalf("new tensor must be zero-filled, got %v", v)
		}
	}
}

func TestNewRaw_InvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, -1}, Float32, CPU); err == nil {
		t.Error("expected error for negative dimension")
	}
}

func TestRawTensor_Scalar(t *testing.T) {
	// 0-d tensor: one element, empty shape.
	raw, err := NewRaw(Shape{}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if raw.NumElements() != 1 {
		t.Errorf("0-d NumElements: got %d, expected 1", raw.NumElements())
	}
	raw.AsFloat32()[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("0-d element write failed")
	}
}

func TestRawTensor_AsFloat32View(t *testing.T) {
	raw := MustNewRaw(Shape{4}, Float32, CPU)
	view := raw.AsFloat32()
	view[2] = 3.5

	// The view aliases the underlying buffer.
	if raw.AsFloat32()[2] != 3.5 {
		t.Error("AsFloat32 must return a live view, not a copy")
	}
}

func TestRawTensor_AsFloat32WrongType(t *testing.T) {
	raw := MustNewRaw(Shape{4}, Int32, CPU)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for AsFloat32 on Int32 tensor")
		}
	}()
	raw.AsFloat32()
}

func TestRawTensor_Clone(t *testing.T) {
	raw := MustNewRaw(Shape{2, 2}, Float32, CPU)
	copy(raw.AsFloat32(), []float32{1, 2, 3, 4})

	clone := raw.Clone()
	clone.AsFloat32()[0] = 99

	if raw.AsFloat32()[0] != 1 {
		t.Error("Clone must not share the buffer")
	}
	if !clone.Shape().Equal(raw.Shape()) {
		t.Errorf("Clone shape: got %v", clone.Shape())
	}
}

func TestRawTensor_CloneTo(t *testing.T) {
	raw := MustNewRaw(Shape{3}, Float32, CPU)
	copy(raw.AsFloat32(), []float32{1, 2, 3})

	dev := raw.CloneTo(WebGPU)
	if dev.Device() != WebGPU {
		t.Errorf("CloneTo device: got %v, expected WebGPU", dev.Device())
	}
	// Transfers keep the bytes host-visible.
	if !float32Equal(dev.AsFloat32(), []float32{1, 2, 3}) {
		t.Errorf("CloneTo data: got %v", dev.AsFloat32())
	}

	back := dev.CloneTo(CPU)
	if back.Device() != CPU {
		t.Errorf("round trip device: got %v", back.Device())
	}
}

func float32Equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
