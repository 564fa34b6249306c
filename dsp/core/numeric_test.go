package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -1, 0, 1, 0},
		{"above", 2, 0, 1, 1},
		{"swapped bounds", 2, 1, 0, 1},
		{"cosine rounding", 1.0000000000000002, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		eps  float64
		want bool
	}{
		{"absolute near zero", 0, 1e-13, 1e-12, true},
		{"clearly different", 1, 1.1, 1e-3, false},
		{"relative for large steps", 1e6, 1e6 * (1 + 1e-10), 1e-9, true},
		{"relative limit exceeded", 1e6, 1e6 * (1 + 1e-8), 1e-9, false},
		{"sample step rounding", 0.001, 0.0010000000000000009, 1e-9, true},
		{"default epsilon", 1, 1 + 1e-13, 0, true},
	}

	for _, tt := range tests {
		if got := NearlyEqual(tt.a, tt.b, tt.eps); got != tt.want {
			t.Errorf("%s: NearlyEqual(%v, %v, %v) = %v", tt.name, tt.a, tt.b, tt.eps, got)
		}
	}
}

func TestMean(t *testing.T) {
	if Mean(nil) != 0 {
		t.Fatal("Mean(nil) should be 0")
	}
	if got := Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Fatalf("Mean() = %v, want 3", got)
	}
}

func TestAmplitudeToDB(t *testing.T) {
	if got := AmplitudeToDB(10); math.Abs(got-20) > 1e-12 {
		t.Fatalf("AmplitudeToDB(10) = %v, want 20", got)
	}
	if got := AmplitudeToDB(math.Sqrt(0.5)); math.Abs(got+3.0103) > 1e-4 {
		t.Fatalf("AmplitudeToDB(1/sqrt2) = %v, want -3.0103", got)
	}
	if !math.IsInf(AmplitudeToDB(0), -1) {
		t.Fatal("expected -Inf for silence")
	}
	if !math.IsNaN(AmplitudeToDB(-1)) || !math.IsNaN(AmplitudeToDB(math.NaN())) {
		t.Fatal("expected NaN for invalid amplitudes")
	}
}
