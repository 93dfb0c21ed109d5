package math

import (
	"math"
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := Vec2{3, 4}
	n := v.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec2.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec2{}).Normalize(); z != (Vec2{}) {
		t.Errorf("zero Normalize() = %v, want zero", z)
	}
}

func TestVec2CrossPerp(t *testing.T) {
	x := Vec2{1, 0}
	y := Vec2{0, 1}
	if got := x.Cross(y); got != 1 {
		t.Errorf("Vec2.Cross() = %v, want 1", got)
	}
	if got := x.Perp(); got != y {
		t.Errorf("Vec2.Perp() = %v, want %v", got, y)
	}
	if got := x.Perp().Dot(x); got != 0 {
		t.Errorf("Perp not orthogonal: dot = %v", got)
	}
}

func TestVec2Lerp(t *testing.T) {
	a := Vec2{0, 0}
	b := Vec2{10, 20}
	if got := a.Lerp(b, 0.5); got != (Vec2{5, 10}) {
		t.Errorf("Vec2.Lerp() = %v, want {5 10}", got)
	}
}

func TestVec2IsFinite(t *testing.T) {
	tests := []struct {
		v    Vec2
		want bool
	}{
		{Vec2{1, 2}, true},
		{Vec2{float32(math.NaN()), 0}, false},
		{Vec2{0, float32(math.Inf(1))}, false},
	}
	for _, tt := range tests {
		if got := tt.v.IsFinite(); got != tt.want {
			t.Errorf("%v.IsFinite() = %v, want %v", tt.v, got, tt.want)
		}
	}
}
