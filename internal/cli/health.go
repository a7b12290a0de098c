package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// DaemonAlive reports whether the almd process recorded in pidFile is still
// running, trimmed from devops/health's Checker down to the one probe kind
// that applies to a single local daemon: a PID-file liveness check, the way
// ProbeProcess worked. HTTP and TCP probes have no counterpart here since
// almd exposes nothing but the optional Prometheus endpoint.
func DaemonAlive(pidFile string) (pid int, alive bool, err error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, false, fmt.Errorf("read pid file: %w", err)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("parse pid file %s: %w", pidFile, err)
	}
	if err := syscall.Kill(pid, 0); err != nil {
		return pid, false, nil
	}
	return pid, true, nil
}

// WritePIDFile records the current process's PID for a later DaemonAlive
// check.
func WritePIDFile(pidFile string) error {
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
