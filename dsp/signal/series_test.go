package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
)

func TestNewSeriesCopiesInput(t *testing.T) {
	tt := []float64{0, 0.5, 1, 1.5}
	x := []float64{1, 2, 3, 4}

	s, err := NewSeries(tt, x, 0)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	x[0] = 99
	tt[0] = -1

	if s.Values()[0] != 1 || s.Times()[0] != 0 {
		t.Fatal("series aliases caller buffers")
	}
	if s.Step() != 0.5 || s.SampleRate() != 2 || s.Duration() != 1.5 {
		t.Fatalf("unexpected grid: step=%v rate=%v duration=%v", s.Step(), s.SampleRate(), s.Duration())
	}
}

func TestValidateGrid(t *testing.T) {
	tests := []struct {
		name    string
		t       []float64
		wantErr error
	}{
		{name: "uniform", t: []float64{0, 0.1, 0.2, 0.30000000000000004}},
		{name: "too-short", t: []float64{0}, wantErr: core.ErrDomain},
		{name: "decreasing", t: []float64{0, -1, -2}, wantErr: ErrNonUniformGrid},
		{name: "repeated", t: []float64{0, 1, 1, 2}, wantErr: ErrNonUniformGrid},
		{name: "jitter", t: []float64{0, 1, 2.01, 3}, wantErr: ErrNonUniformGrid},
		{name: "nan", t: []float64{0, math.NaN(), 2}, wantErr: core.ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateGrid(tt.t, 0)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateGrid() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateGrid() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSeriesRejectsNonFiniteValues(t *testing.T) {
	_, err := NewSeries([]float64{0, 1}, []float64{0, math.Inf(1)}, 0)
	if !errors.Is(err, core.ErrNonFinite) {
		t.Fatalf("NewSeries() = %v, want ErrNonFinite", err)
	}
}

func TestConcat(t *testing.T) {
	a, _ := Uniform([]float64{1, 2, 3}, 0, 0.25)
	b, _ := Uniform([]float64{4, 5}, 10, 0.25)

	c, err := a.Concat(b, 0)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
	if got := c.Times()[4]; got != 1 {
		t.Fatalf("last time = %v, want 1", got)
	}

	d, _ := Uniform([]float64{1, 2}, 0, 0.5)
	if _, err := a.Concat(d, 0); !errors.Is(err, ErrNonUniformGrid) {
		t.Fatalf("Concat() = %v, want ErrNonUniformGrid", err)
	}
}
