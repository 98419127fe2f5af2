package realtime

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Priority < 1 || cfg.Priority > 99 {
		t.Errorf("default priority %d out of SCHED_FIFO range", cfg.Priority)
	}
	if !cfg.LockMemory {
		t.Error("default config should lock memory")
	}
}

func TestSetupZeroConfigIsNoop(t *testing.T) {
	if err := Setup(Config{}); err != nil {
		t.Errorf("zero config Setup failed: %v", err)
	}
}

func TestSetup(t *testing.T) {
	if !Supported() {
		t.Skip("realtime scheduling not supported on this platform")
	}
	if os.Geteuid() != 0 {
		t.Skip("needs root for mlockall and SCHED_FIFO")
	}
	if err := Setup(DefaultConfig()); err != nil {
		t.Errorf("Setup failed as root: %v", err)
	}
}
