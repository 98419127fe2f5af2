package endstop

import (
	"errors"
	"testing"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateOpen, "open"},
		{StateTriggered, "triggered"},
		{StateUnknown, "unknown"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if tt.state.String() != tt.expected {
			t.Errorf("State %d String() = %s, want %s", tt.state, tt.state.String(), tt.expected)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	e := New(Config{Name: "x_min", Pin: 22})
	if e.GetName() != "x_min" {
		t.Errorf("Name = %s, want x_min", e.GetName())
	}
	if e.GetPin() != 22 {
		t.Errorf("Pin = %d, want 22", e.GetPin())
	}
	if e.HomingDir() != -1 {
		t.Errorf("HomingDir = %d, want -1 default", e.HomingDir())
	}
	if e.GetState() != StateUnknown {
		t.Errorf("initial state = %s, want unknown", e.GetState())
	}
}

func TestQuery(t *testing.T) {
	e := New(Config{Name: "tower_a"})
	level := false
	e.SetQueryCallback(func() (bool, error) { return level, nil })

	if s, err := e.Query(); err != nil || s != StateOpen {
		t.Errorf("Query() = %v, %v, want open", s, err)
	}
	level = true
	if s, err := e.Query(); err != nil || s != StateTriggered {
		t.Errorf("Query() = %v, %v, want triggered", s, err)
	}
	if !e.Triggered() {
		t.Error("Triggered() = false, want true")
	}
}

func TestQueryInverted(t *testing.T) {
	e := New(Config{Name: "tower_a", Inverted: true})
	e.SetQueryCallback(func() (bool, error) { return false, nil })
	if !e.Triggered() {
		t.Error("inverted open switch should read triggered")
	}
}

func TestQueryNoCallback(t *testing.T) {
	e := New(Config{Name: "none"})
	if _, err := e.Query(); !errors.Is(err, ErrNoQuery) {
		t.Errorf("Query() error = %v, want ErrNoQuery", err)
	}
	if e.Triggered() {
		t.Error("Triggered() with no callback should be false")
	}
}

func TestBindLevel(t *testing.T) {
	e := New(Config{Name: "x_min"})
	level := 0
	e.BindLevel(func() (int, error) { return level, nil })

	if e.Triggered() {
		t.Error("low input should read open")
	}
	level = 1
	if !e.Triggered() {
		t.Error("high input should read triggered")
	}
}

func TestBindLevelInverted(t *testing.T) {
	e := New(Config{Name: "x_min", Inverted: true})
	e.BindLevel(func() (int, error) { return 0, nil })
	if !e.Triggered() {
		t.Error("inverted low input should read triggered")
	}
}

func TestBindLevelError(t *testing.T) {
	e := New(Config{Name: "bad"})
	boom := errors.New("sysfs read failed")
	e.BindLevel(func() (int, error) { return 1, boom })
	if e.Triggered() {
		t.Error("Triggered() on read failure should be false")
	}
	if _, err := e.Query(); !errors.Is(err, boom) {
		t.Errorf("Query() error = %v, want the read failure", err)
	}
}

func TestQueryError(t *testing.T) {
	e := New(Config{Name: "bad"})
	boom := errors.New("read failed")
	e.SetQueryCallback(func() (bool, error) { return true, boom })
	if s, err := e.Query(); !errors.Is(err, boom) || s != StateUnknown {
		t.Errorf("Query() = %v, %v, want unknown + read failure", s, err)
	}
	if e.Triggered() {
		t.Error("Triggered() on query failure should be false")
	}
}
