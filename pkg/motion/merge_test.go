package motion

import (
	"math"
	"testing"
)

// raw builds a stepper collection directly from pending times, the way
// the selector sees them mid-move.
func raw(times ...float64) []AxisStepper {
	axes := make([]AxisStepper, len(times))
	for i, t := range times {
		axes[i] = AxisStepper{index: i, Time: t, Direction: StepForward, begun: true}
	}
	return axes
}

func TestSentinelPrecedence(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		times []float64
		want  int
	}{
		{"no-step loses to real", []float64{0, 3.5}, 1},
		{"real beats no-step", []float64{3.5, 0}, 0},
		{"negative is also no-step", []float64{-1, 7.0}, 1},
		{"no-step loses even to NaN", []float64{0, nan}, 1},
		{"NaN beats no-step either order", []float64{nan, -2}, 0},
	}
	for _, tt := range tests {
		if got := GetNextTime(raw(tt.times...)); got.Index() != tt.want {
			t.Errorf("%s: selected axis %d (time %v), want %d", tt.name, got.Index(), got.Time, tt.want)
		}
	}
}

func TestNaNExclusion(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		times []float64
		want  int
	}{
		{[]float64{nan, 3.5}, 1},
		{[]float64{3.5, nan}, 0},
		{[]float64{nan, nan, 0.001}, 2},
		{[]float64{1e9, nan}, 0},
	}
	for _, tt := range tests {
		if got := GetNextTime(raw(tt.times...)); got.Index() != tt.want {
			t.Errorf("times %v: selected axis %d, want %d", tt.times, got.Index(), tt.want)
		}
	}
}

func TestTotalOrderingOnReals(t *testing.T) {
	tests := []struct {
		times []float64
		want  int
	}{
		{[]float64{1.0, 2.0}, 0},
		{[]float64{2.0, 1.0}, 1},
		{[]float64{5.0, 2.0, 4.0}, 1},
		{[]float64{0.25, 0.5, 0.125, 0.75}, 2},
	}
	for _, tt := range tests {
		if got := GetNextTime(raw(tt.times...)); got.Index() != tt.want {
			t.Errorf("times %v: selected axis %d, want %d", tt.times, got.Index(), tt.want)
		}
	}
}

func TestBothNoStep(t *testing.T) {
	got := GetNextTime(raw(0, -3))
	if got.Time > 0 {
		t.Errorf("all-done collection selected a pending step: %v", got.Time)
	}
}

// TestMergeEndToEnd walks the three-axis scenario {5.0, 2.0, NaN}
// through consumption: 2.0 fires first, then 5.0, then the move is
// complete.
func TestMergeEndToEnd(t *testing.T) {
	axes := raw(5.0, 2.0, math.NaN())

	first := GetNextTime(axes)
	if first.Index() != 1 || first.Time != 2.0 {
		t.Fatalf("first selection = axis %d time %v, want axis 1 time 2.0", first.Index(), first.Time)
	}
	first.Time = NoStepTime // consumed, no further step

	second := GetNextTime(axes)
	if second.Index() != 0 || second.Time != 5.0 {
		t.Fatalf("second selection = axis %d time %v, want axis 0 time 5.0", second.Index(), second.Time)
	}
	second.Time = NoStepTime

	final := GetNextTime(axes)
	if final.Time > 0 && !math.IsNaN(final.Time) {
		t.Fatalf("final selection = axis %d time %v, want no real pending step", final.Index(), final.Time)
	}
}

func TestSelectionDoesNotMutate(t *testing.T) {
	axes := raw(3.0, 1.0, 2.0)
	before := make([]float64, len(axes))
	for i := range axes {
		before[i] = axes[i].Time
	}
	GetNextTime(axes)
	for i := range axes {
		if axes[i].Time != before[i] {
			t.Errorf("selection mutated axis %d: %v -> %v", i, before[i], axes[i].Time)
		}
	}
}

func TestNextStepBeforeInitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NextStep on an unbegun stepper did not panic")
		}
	}()
	var s AxisStepper
	s.NextStep(false)
}
