// Package pidfile enforces single-instance operation of the MES daemon.
// Two daemons bound to the same plant would hand out conflicting dispatch
// decisions, so startup refuses to proceed while a live PID file exists.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile guards one daemon instance per plant
type PIDFile struct {
	path string
}

// New creates a PID file manager for the given path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire claims the PID file, removing a stale one left by a dead
// process. Returns an error when another live instance holds it.
func (p *PIDFile) Acquire() error {
	if pid, ok := p.readPID(); ok {
		if processAlive(pid) {
			return fmt.Errorf("mes-daemon is already running (PID %d)", pid)
		}
		_ = os.Remove(p.path)
	}

	data := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// readPID parses the recorded PID. A garbled file counts as absent.
func (p *PIDFile) readPID() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processAlive probes a PID with signal 0. EPERM means the process
// exists under another user, so it counts as alive.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
