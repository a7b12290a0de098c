package cleanup

import (
	"context"
	"fmt"
	"sync"

	"alm/internal/registry"
)

// SubsystemCleaner is one of the four external subsystems whose per-app
// state C7 must release before an app's slot can be reused: tables
// (CFE_TBL), software bus (CFE_SB), time (CFE_TIME), or events (CFE_EVS).
// Each is called once per app, in that fixed order, outside the registry
// lock, because any of them may need to acquire a peer-subsystem lock of
// its own.
type SubsystemCleaner interface {
	CleanUpApp(appIndex int) error
}

// hookAdapter adapts a SubsystemCleaner's per-app call to lifecycle.Drainable
// so it can run through lifecycle.DrainAll alongside the rest of C7's
// pre-teardown hooks. Drain ignores the context DrainAll passes in, so
// DrainAll's per-hook timeout does not interrupt CleanUpApp.
type hookAdapter struct {
	name     string
	appIndex int
	cleaner  SubsystemCleaner
}

func (h hookAdapter) Name() string { return h.name }

func (h hookAdapter) Drain(context.Context) error {
	return h.cleaner.CleanUpApp(h.appIndex)
}

// TableRegistry stands in for CFE_TBL: it tracks which apps own shared
// table buffers and releases an app's share on cleanup. Its cleanup status
// is never checked upstream, matching CFE_ES_CleanUpApp's treatment of
// CFE_TBL_CleanUpApp's return value.
type TableRegistry struct {
	mu    sync.Mutex
	owned map[int]int
}

func NewTableRegistry() *TableRegistry {
	return &TableRegistry{owned: make(map[int]int)}
}

// Register records that appIndex owns one more shared table.
func (t *TableRegistry) Register(appIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owned[appIndex]++
}

func (t *TableRegistry) CleanUpApp(appIndex int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.owned, appIndex)
	return nil
}

// SoftwareBus stands in for CFE_SB: it tracks each app's open pipes and
// destroys them on cleanup.
type SoftwareBus struct {
	mu    sync.Mutex
	pipes map[int]int
}

func NewSoftwareBus() *SoftwareBus {
	return &SoftwareBus{pipes: make(map[int]int)}
}

// OpenPipe records that appIndex holds one more software bus pipe.
func (b *SoftwareBus) OpenPipe(appIndex int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipes[appIndex]++
}

func (b *SoftwareBus) CleanUpApp(appIndex int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pipes, appIndex)
	return nil
}

// TimeClients stands in for CFE_TIME: it tracks apps registered for
// time-at-the-tone callbacks and deregisters an app's on cleanup.
type TimeClients struct {
	mu       sync.Mutex
	watchers map[int]bool
}

func NewTimeClients() *TimeClients {
	return &TimeClients{watchers: make(map[int]bool)}
}

// Register records that appIndex is watching for time updates.
func (t *TimeClients) Register(appIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers[appIndex] = true
}

func (t *TimeClients) CleanUpApp(appIndex int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.watchers, appIndex)
	return nil
}

// EventFilters stands in for CFE_EVS: it tracks each app's registered event
// filter table. Unlike the other three hooks, its cleanup status is
// load-bearing: CFE_ES_CleanUpApp checks only CFE_EVS_CleanUpApp's return
// code before deciding whether the overall cleanup counts as an error, so
// this is the one hook whose failure here propagates instead of being
// merely logged.
type EventFilters struct {
	mu      sync.Mutex
	pending map[int]bool
}

func NewEventFilters() *EventFilters {
	return &EventFilters{pending: make(map[int]bool)}
}

// FailNextCleanup makes the next CleanUpApp call for appIndex report an
// error instead of succeeding.
func (e *EventFilters) FailNextCleanup(appIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[appIndex] = true
}

func (e *EventFilters) CleanUpApp(appIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[appIndex] {
		delete(e.pending, appIndex)
		return fmt.Errorf("event filter table teardown: %w", registry.ErrAppCleanup)
	}
	return nil
}
