package motion

import (
	"math"
	"testing"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/endstop"
	"printipi-go-migration/pkg/vec"
)

func testCartesian() *coordmap.Machine {
	return coordmap.NewCartesian(coordmap.CartesianConfig{
		StepsPerMM:         [3]float64{80, 80, 400},
		ExtruderStepsPerMM: 100,
	})
}

// consume drains a session, checking global time ordering and
// per-axis monotonicity as it goes.
func consume(t *testing.T, s *Session, limit int) []StepEvent {
	t.Helper()
	var events []StepEvent
	lastGlobal := 0.0
	lastPerAxis := map[int]float64{}
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		if ev.Time < lastGlobal {
			t.Fatalf("merged stream out of order: %v after %v", ev.Time, lastGlobal)
		}
		if ev.Time < lastPerAxis[ev.Axis] {
			t.Fatalf("axis %d steps out of order: %v after %v", ev.Axis, ev.Time, lastPerAxis[ev.Axis])
		}
		lastGlobal = ev.Time
		lastPerAxis[ev.Axis] = ev.Time
		events = append(events, ev)
		if len(events) > limit {
			t.Fatalf("move did not terminate within %d steps", limit)
		}
	}
	return events
}

func TestLineStepTimes(t *testing.T) {
	m := testCartesian()
	s := NewSession(m)
	// 10 mm/s on X at 80 steps/mm: one step every 1.25 ms.
	s.BeginLine(make([]int, 4), LineMove{Vel: vec.Vec4{10, 0, 0, 0}, Duration: 0.0101}, false)

	events := consume(t, s, 100)
	if len(events) != 8 {
		t.Fatalf("step count = %d, want 8", len(events))
	}
	for i, ev := range events {
		want := float64(i+1) / 800
		if math.Abs(ev.Time-want) > 1e-12 {
			t.Errorf("step %d time = %v, want %v", i, ev.Time, want)
		}
		if ev.Axis != 0 || ev.Direction != StepForward {
			t.Errorf("step %d = axis %d %v, want axis 0 forward", i, ev.Axis, ev.Direction)
		}
	}
	if s.Position()[0] != 8 {
		t.Errorf("final position = %d, want 8", s.Position()[0])
	}
}

func TestLineCompletionBound(t *testing.T) {
	m := testCartesian()
	s := NewSession(m)
	move := LineMove{Vel: vec.Vec4{10, -5, 1, 2}, Duration: 0.5}
	s.BeginLine(make([]int, 4), move, false)

	// Steps are bounded by per-axis velocity * resolution * duration.
	bound := 0
	for _, a := range m.Axes {
		bound += int(math.Abs(move.Vel[a.Coord])*a.StepsPerMM*move.Duration) + 1
	}
	events := consume(t, s, bound+4)
	if len(events) == 0 {
		t.Fatal("no steps generated")
	}
	if len(events) > bound {
		t.Errorf("step count %d exceeds bound %d", len(events), bound)
	}
	if s.Active() {
		t.Error("session still active after completion")
	}
}

func TestLineDeterminism(t *testing.T) {
	run := func() []StepEvent {
		s := NewSession(testCartesian())
		s.BeginLine([]int{100, -50, 0, 0}, LineMove{Vel: vec.Vec4{33.3, 7.5, -2, 1.25}, Duration: 0.2}, false)
		return consume(t, s, 10000)
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverge at step %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestLineDisplacement(t *testing.T) {
	m := testCartesian()
	s := NewSession(m)
	start := vec.Vec4{10, -5, 2.5, 1}
	move := LineMove{Vel: vec.Vec4{20, -10, 4, 2}, Duration: 0.1}

	s.BeginLine(m.MechanicalFromCartesian(start), move, false)
	consume(t, s, 10000)

	// The end position is the start displaced by velocity * duration,
	// to within one step per axis.
	want := start.Add(move.Vel.Scale(move.Duration))
	end := s.Position()
	var got vec.Vec4
	for i, a := range m.Axes {
		got[i] = float64(end[i]) / a.StepsPerMM
	}
	diff := got.Sub(want)
	maxStep := 1.0 / 80 // coarsest axis resolution
	if diff.Mag() > 2*maxStep {
		t.Errorf("end position %v, want %v (off by %v)", got, want, diff.Mag())
	}
}

func TestLineBackwardDirection(t *testing.T) {
	s := NewSession(testCartesian())
	s.BeginLine(make([]int, 4), LineMove{Vel: vec.Vec4{0, -20, 0, 0}, Duration: 0.01}, false)
	events := consume(t, s, 100)
	if len(events) == 0 {
		t.Fatal("no steps generated")
	}
	for _, ev := range events {
		if ev.Axis != 1 || ev.Direction != StepBackward {
			t.Errorf("event %+v, want axis 1 backward", ev)
		}
	}
	if got := s.Position()[1]; got != -len(events) {
		t.Errorf("position = %d, want %d", got, -len(events))
	}
}

func TestZeroVelocityProducesNoSteps(t *testing.T) {
	s := NewSession(testCartesian())
	s.BeginLine(make([]int, 4), LineMove{Duration: 1}, false)
	if ev, ok := s.Next(); ok {
		t.Errorf("zero-velocity move produced step %+v", ev)
	}
}

func TestEndstopShortCircuit(t *testing.T) {
	m := testCartesian()
	es := endstop.New(endstop.Config{Name: "x_min", HomingDir: -1})
	es.SetQueryCallback(func() (bool, error) { return true, nil })
	m.Axes[0].Endstop = es

	steppers := make([]AxisStepper, m.NumAxes())
	InitAxisSteppers(steppers, true, m, make([]int, 4), LineMove{Vel: vec.Vec4{-50, 0, 0, 0}, Duration: 1})

	// The very first advance on the limited axis must yield the
	// sentinel regardless of the requested velocity.
	if steppers[0].Time > 0 {
		t.Errorf("limited axis first step time = %v, want non-positive", steppers[0].Time)
	}
}

func TestEndstopIgnoredWhenDisabled(t *testing.T) {
	m := testCartesian()
	es := endstop.New(endstop.Config{Name: "x_min"})
	es.SetQueryCallback(func() (bool, error) { return true, nil })
	m.Axes[0].Endstop = es

	steppers := make([]AxisStepper, m.NumAxes())
	InitAxisSteppers(steppers, false, m, make([]int, 4), LineMove{Vel: vec.Vec4{-50, 0, 0, 0}, Duration: 1})

	if steppers[0].Time <= 0 {
		t.Errorf("with useEndstops=false first step time = %v, want positive", steppers[0].Time)
	}
}

func TestSessionReuse(t *testing.T) {
	s := NewSession(testCartesian())

	s.BeginLine(make([]int, 4), LineMove{Vel: vec.Vec4{10, 0, 0, 0}, Duration: 0.01}, false)
	first := consume(t, s, 100)

	s.BeginLine(s.Position(), LineMove{Vel: vec.Vec4{-10, 0, 0, 0}, Duration: 0.01}, false)
	second := consume(t, s, 100)

	if len(first) != len(second) {
		t.Fatalf("mirrored moves differ: %d vs %d steps", len(first), len(second))
	}
	if got := s.Position()[0]; got != 0 {
		t.Errorf("position after mirrored moves = %d, want 0", got)
	}
	if s.TotalSteps() != uint64(len(first)+len(second)) {
		t.Errorf("TotalSteps = %d, want %d", s.TotalSteps(), len(first)+len(second))
	}
}
