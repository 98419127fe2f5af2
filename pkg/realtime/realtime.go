// Package realtime raises the scheduling priority of the stepping
// process. Precise pulse timing on a general-purpose kernel needs the
// process locked in memory and scheduled ahead of ordinary tasks;
// without it a page fault or a busy desktop can stretch a 2us step
// pulse into milliseconds.
package realtime

// Config controls how aggressively the process is promoted.
type Config struct {
	// Priority is the SCHED_FIFO priority, 1 (lowest) to 99.
	// Zero leaves the scheduling policy untouched.
	Priority int
	// LockMemory pins current and future pages into RAM.
	LockMemory bool
}

// DefaultConfig is a sensible promotion for a dedicated controller:
// high but not maximal priority, leaving room for kernel threads.
func DefaultConfig() Config {
	return Config{Priority: 50, LockMemory: true}
}
