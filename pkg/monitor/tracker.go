package monitor

import (
	"sync"
	"time"

	"printipi-go-migration/pkg/coordmap"
	"printipi-go-migration/pkg/motion"
)

// Tracker is a thread-safe StatusSource fed by the stepping loop.
// The loop calls Update between steps; the monitor server reads
// snapshots from its own goroutines.
type Tracker struct {
	mu      sync.Mutex
	machine *coordmap.Machine
	status  Status
}

// NewTracker creates a tracker for the given machine.
func NewTracker(m *coordmap.Machine) *Tracker {
	t := &Tracker{machine: m}
	t.status.Axes = make([]AxisStatus, m.NumAxes())
	for i, a := range m.Axes {
		t.status.Axes[i].Name = a.Name
	}
	return t
}

// Update records the session's current state.
func (t *Tracker) Update(s *motion.Session) {
	pos := s.Position()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Active = s.Active()
	t.status.MoveSteps = s.MoveSteps()
	t.status.TotalSteps = s.TotalSteps()
	t.status.Time = time.Now()
	for i := range t.status.Axes {
		t.status.Axes[i].Position = pos[i]
		if spm := t.machine.Axes[i].StepsPerMM; spm > 0 {
			t.status.Axes[i].Pos = float64(pos[i]) / spm
		}
	}
}

// Snapshot returns the most recent recorded state.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.status
	st.Axes = make([]AxisStatus, len(t.status.Axes))
	copy(st.Axes, t.status.Axes)
	return st
}
