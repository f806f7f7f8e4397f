package tensor

import (
	"testing"
)

func equalShapes(a, b []int) bool {
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

func TestNewValidatesShape(t *testing.T) {
	if _, err := New([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for missing shape")
	}
	if _, err := New([]float64{1, 2}, 3); err == nil {
		t.Fatalf("expected error for data/shape mismatch")
	}
	if _, err := New([]float64{1, 2}, -1, 2); err == nil {
		t.Fatalf("expected error for negative dimension")
	}
	tt, err := New([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalShapes(tt.Shape(), []int{2, 3}) {
		t.Fatalf("unexpected shape: %v", tt.Shape())
	}
	if tt.Numel() != 6 {
		t.Fatalf("unexpected numel: %d", tt.Numel())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := MustNew([]float64{1, 2, 3, 4}, 2, 2)
	b := a.Clone()
	if err := b.SetData([]float64{9, 9, 9, 9}); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	if a.Data()[0] != 1 {
		t.Fatalf("clone shares storage with source")
	}
}

func TestAtIndexing(t *testing.T) {
	a := MustNew([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if got := a.At(1, 2); got != 6 {
		t.Fatalf("At(1,2) = %v, want 6", got)
	}
	if got := a.At(0, 1); got != 2 {
		t.Fatalf("At(0,1) = %v, want 2", got)
	}
}

func TestEye(t *testing.T) {
	id := Eye(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if got := id.At(i, j); got != want {
				t.Fatalf("Eye(3)[%d,%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestCopyIntoChecksShape(t *testing.T) {
	dst := Zeros(2, 2)
	src := MustNew([]float64{1, 2, 3, 4}, 2, 2)
	if err := CopyInto(dst, src); err != nil {
		t.Fatalf("CopyInto failed: %v", err)
	}
	if dst.At(1, 1) != 4 {
		t.Fatalf("CopyInto did not copy data")
	}
	if err := CopyInto(dst, Zeros(4)); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}
