package tensor

import "testing"

func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4, 5}, 120},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShape_Validate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{}).Validate(); err != nil {
		t.Errorf("0-d shape rejected: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension accepted")
	}
	if err := (Shape{-1}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}

func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("strides = %v, want %v", strides, want)
		}
	}
}

func TestShape_Clone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] != 2 {
		t.Error("Clone must not share storage")
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		needed  bool
		wantErr bool
	}{
		{"SameShape", Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false, false},
		{"RowVector", Shape{2, 3}, Shape{1, 3}, Shape{2, 3}, true, false},
		{"ColVector", Shape{4, 1}, Shape{4, 5}, Shape{4, 5}, true, false},
		{"RankMismatch", Shape{2, 3}, Shape{3}, Shape{2, 3}, true, false},
		{"Channel", Shape{2, 3, 8, 8}, Shape{1, 3, 1, 1}, Shape{2, 3, 8, 8}, true, false},
		{"Incompatible", Shape{2, 3}, Shape{2, 4}, nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, needed, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v and %v", tt.a, tt.b)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.Equal(tt.want) {
				t.Errorf("shape = %v, want %v", out, tt.want)
			}
			if needed != tt.needed {
				t.Errorf("needed = %v, want %v", needed, tt.needed)
			}
		})
	}
}
