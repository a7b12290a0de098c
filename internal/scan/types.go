// Package scan implements the periodic scan scheduler (C5) and the
// per-app control-request processor (C6): the background job that decides
// when to walk the app table, and the state-machine step invoked once an
// app's grace window has expired.
package scan

import "time"

// Config bounds the scheduler's timing, grounded on spec.md §6's
// APP_SCAN_RATE / APP_KILL_TIMEOUT constants.
type Config struct {
	// ScanRate is the nominal interval between background scans
	// (APP_SCAN_RATE).
	ScanRate time.Duration
	// KillTimeoutTicks is the number of ScanRate periods a WAITING app is
	// given before C6 runs (APP_KILL_TIMEOUT).
	KillTimeoutTicks int64
}

func (c Config) scanRateMS() int64 {
	return c.ScanRate.Milliseconds()
}

func (c Config) killTimeoutMS() int64 {
	return c.KillTimeoutTicks * c.scanRateMS()
}

// ScanState is the persistent, scheduler-owned bookkeeping spec.md §4.5
// calls out as distinct from the registry: pending_changes,
// last_command_count, and background_timer. It lives on Scheduler, not
// Registry, since nothing else in the system reads or writes it.
type ScanState struct {
	pendingChanges   int
	lastCommandCount uint64
	backgroundTimer  int64
}
