package tensor

import "testing"

func TestBroadcastShapes(t *testing.T) {
	cases := []struct {
		a, b, want []int
	}{
		{[]int{2}, []int{2}, []int{2}},
		{[]int{3, 1}, []int{2}, []int{3, 2}},
		{nil, []int{2, 3}, []int{2, 3}},
		{[]int{2, 1, 4}, []int{3, 1}, []int{2, 3, 4}},
	}
	for _, c := range cases {
		got, err := BroadcastShapes(c.a, c.b)
		if err != nil {
			t.Fatalf("BroadcastShapes(%v, %v) failed: %v", c.a, c.b, err)
		}
		if !equalShapes(got, c.want) {
			t.Fatalf("BroadcastShapes(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
	if _, err := BroadcastShapes([]int{3}, []int{2}); err == nil {
		t.Fatalf("expected incompatible dimensions error")
	}
}

func TestBroadcastToRepeats(t *testing.T) {
	a := MustNew([]float64{1, 2}, 2)
	out, err := BroadcastTo(a, []int{3, 2})
	if err != nil {
		t.Fatalf("BroadcastTo failed: %v", err)
	}
	if !equalShapes(out.Shape(), []int{3, 2}) {
		t.Fatalf("unexpected shape: %v", out.Shape())
	}
	want := []float64{1, 2, 1, 2, 1, 2}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Fatalf("unexpected data at %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestBroadcastToExpandsSizeOneDims(t *testing.T) {
	a := MustNew([]float64{1, 2}, 2, 1)
	out, err := BroadcastTo(a, []int{2, 3})
	if err != nil {
		t.Fatalf("BroadcastTo failed: %v", err)
	}
	want := []float64{1, 1, 1, 2, 2, 2}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Fatalf("unexpected data at %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestBroadcastToRejectsIncompatible(t *testing.T) {
	a := MustNew([]float64{1, 2, 3}, 3)
	if _, err := BroadcastTo(a, []int{2}); err == nil {
		t.Fatalf("expected incompatible dimensions error")
	}
	b := MustNew([]float64{1, 2}, 1, 2)
	if _, err := BroadcastTo(b, []int{2}); err == nil {
		t.Fatalf("expected rank error")
	}
}

func TestBroadcastToKeepsDevice(t *testing.T) {
	a := Ones(2).To(Accelerator)
	out, err := BroadcastTo(a, []int{4, 2})
	if err != nil {
		t.Fatalf("BroadcastTo failed: %v", err)
	}
	if out.Device() != Accelerator {
		t.Fatalf("broadcast result on %s, want %s", out.Device(), Accelerator)
	}
}
