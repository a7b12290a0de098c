package scan

import "sync/atomic"

// CommandCounter stands in for the command-ingest subsystem spec.md §1
// lists as an out-of-scope external collaborator: something elsewhere
// mutates a control_request field in response to an operator command and
// bumps this counter so C5 notices sooner than its normal scan interval.
type CommandCounter struct {
	n atomic.Uint64
}

// Bump records that an operator command was just accepted.
func (c *CommandCounter) Bump() { c.n.Add(1) }

// Load reads the current count.
func (c *CommandCounter) Load() uint64 { return c.n.Load() }
