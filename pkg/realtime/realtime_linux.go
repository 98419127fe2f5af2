//go:build linux

package realtime

import (
	"golang.org/x/sys/unix"

	"printipi-go-migration/pkg/errors"
)

// Setup applies the requested promotion to the calling process.
// Both steps need CAP_SYS_NICE / CAP_IPC_LOCK; callers should treat a
// failure as a warning rather than fatal, since stepping still works
// (with worse jitter) at normal priority.
func Setup(cfg Config) error {
	if cfg.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			return errors.Wrap(err, errors.ErrRuntimeInit, "cannot lock memory")
		}
	}
	if cfg.Priority > 0 {
		attr := unix.SchedAttr{
			Size:     unix.SizeofSchedAttr,
			Policy:   unix.SCHED_FIFO,
			Priority: uint32(cfg.Priority),
		}
		if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
			return errors.Wrap(err, errors.ErrRuntimeInit, "cannot set realtime priority")
		}
	}
	return nil
}

// Supported reports whether this platform can honor Setup.
func Supported() bool { return true }
