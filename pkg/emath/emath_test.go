package emath

import (
	"math"
	"testing"
)

func TestFloatGridBasics(t *testing.T) {
	fg := NewFloatGrid(4, 3)
	if fg.Dx() != 4 || fg.Dy() != 3 {
		t.Fatalf("dims = %dx%d, want 4x3", fg.Dx(), fg.Dy())
	}
	fg.Set(1, 2, 5)
	fg.Add(1, 2, 2.5)
	if got := fg.Get(1, 2); got != 7.5 {
		t.Errorf("Get(1,2) = %v, want 7.5", got)
	}
	if got := fg.Row(2)[1]; got != 7.5 {
		t.Errorf("Row(2)[1] = %v, want 7.5", got)
	}
	if got := fg.Sum(); got != 7.5 {
		t.Errorf("Sum = %v, want 7.5", got)
	}

	cp := fg.Copy()
	cp.Set(0, 0, 1)
	if fg.Get(0, 0) != 0 {
		t.Errorf("Copy aliases the original")
	}
	if got := fg.GetClamped(-3, 9); got != fg.Get(0, 2) {
		t.Errorf("GetClamped(-3,9) = %v, want %v", got, fg.Get(0, 2))
	}
}

func TestFloatGridEmpty(t *testing.T) {
	fg := NewFloatGrid(0, 5)
	if fg.Dy() != 0 {
		t.Errorf("Dy of zero-width grid = %d, want 0", fg.Dy())
	}
	if lo, hi := fg.MinMax(); lo != 0 || hi != 0 {
		t.Errorf("MinMax of empty grid = %v,%v", lo, hi)
	}
}

func TestFloatGridClamp(t *testing.T) {
	fg := NewFloatGrid(4, 1)
	copy(fg.Values(), []float64{-1, math.NaN(), math.Inf(1), 0.5})
	if n := fg.Clamp(0, 1); n != 2 {
		t.Errorf("Clamp reported %d non-finite values, want 2", n)
	}
	want := []float64{0, 0, 0, 0.5}
	for i, v := range fg.Values() {
		if v != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 5, 1}, {-2, 5, 2}, {0, 5, 0}, {4, 5, 4}, {5, 5, 3}, {6, 5, 2},
		{-1, 1, 0}, {3, 2, 1}, {-1, 2, 1},
	}
	for _, tc := range tests {
		if got := Reflect101(tc.i, tc.n); got != tc.want {
			t.Errorf("Reflect101(%d,%d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
		if tc.n > 2 && (Reflect101(tc.i, tc.n)-tc.i)%2 != 0 {
			t.Errorf("Reflect101(%d,%d) changed parity", tc.i, tc.n)
		}
	}
}

func TestWrap(t *testing.T) {
	if got := Wrap(-1, 4); got != 3 {
		t.Errorf("Wrap(-1,4) = %d", got)
	}
	if got := Wrap(9, 4); got != 1 {
		t.Errorf("Wrap(9,4) = %d", got)
	}
	if got := Wrap(3, 0); got != 0 {
		t.Errorf("Wrap(3,0) = %d", got)
	}
}

func TestScaleAbout(t *testing.T) {
	m := ScaleAbout(2, 10, 10)
	if x, y := m.Apply(10, 10); x != 10 || y != 10 {
		t.Errorf("center moved to %v,%v", x, y)
	}
	if x, y := m.Apply(11, 9); x != 12 || y != 8 {
		t.Errorf("Apply(11,9) = %v,%v, want 12,8", x, y)
	}
}

func TestPermutation(t *testing.T) {
	m := Permutation([3]int{2, 0, 1})
	got := m.Apply(Vec3{1, 2, 3})
	if got != (Vec3{3, 1, 2}) {
		t.Errorf("permutation gave %s", got)
	}
	if d := (Vec3{2, 3, 4}).Diag().Apply(Vec3{1, 1, 1}); d != (Vec3{2, 3, 4}) {
		t.Errorf("Diag gave %s", d)
	}
}

func TestGamma(t *testing.T) {
	if got := GammaExpand_F64(0); got != 0 {
		t.Errorf("sRGB(0) = %v", got)
	}
	if got := GammaExpand_F64(1); math.Abs(got-1) > 1e-12 {
		t.Errorf("sRGB(1) = %v", got)
	}
	if got := GammaExpand_Power(0.25, 2); got != 0.5 {
		t.Errorf("power(0.25, 2) = %v", got)
	}
	if got := GammaExpand_Power(-1, 2.2); got != 0 {
		t.Errorf("power(-1) = %v", got)
	}
}
