// Package osal implements the OS abstraction layer contract this module
// consumes: module load/unload, symbol lookup, task creation, and
// owner-scoped object enumeration. The real OSAL is out of scope as a
// subsystem to design, but a concrete implementation is required to make
// the lifecycle manager runnable, so Simulator stands in for it with
// goroutine-backed tasks and an in-process module registry.
package osal

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Handle is an opaque reference into a fixed-capacity table, carrying a
// random nonzero 32-bit generation value so a stale handle from a freed
// slot is rejected after the slot is reused, unless the two generation
// draws happen to collide.
type Handle struct {
	index      int
	generation uint32
}

// Valid reports whether h refers to a live allocation.
func (h Handle) Valid() bool { return h.generation != 0 }

func (h Handle) String() string {
	if !h.Valid() {
		return "osal.Handle(invalid)"
	}
	return fmt.Sprintf("osal.Handle{%d,%d}", h.index, h.generation)
}

// ModuleHandle identifies a loaded module.
type ModuleHandle struct{ Handle }

// TaskID identifies a task (main or child) known to the OSAL.
type TaskID struct{ Handle }

func nextGeneration() uint32 {
	id := uuid.New()
	g := binary.BigEndian.Uint32(id[:4])
	if g == 0 {
		g = 1
	}
	return g
}

func newHandle(index int) Handle {
	return Handle{index: index, generation: nextGeneration()}
}
