package osal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"alm/internal/async"
)

type taskSlot struct {
	inUse  bool
	handle TaskID
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// taskTable mirrors internal/devops/process.Manager's map-of-tracked-
// processes shape, but indexed by slot so ConvertToArrayIndex can hand back
// a stable array position the way OS_ConvertToArrayIndex does for a real
// OSAL task id.
type taskTable struct {
	mu    sync.Mutex
	slots []*taskSlot
}

func newTaskTable() *taskTable {
	return &taskTable{}
}

// TaskCreate implements task_create: spawn a goroutine running the entry
// function, tracked the same way process.Manager.Start reaps an exec.Cmd in
// a background goroutine keyed by identity rather than PID.
func (s *Simulator) TaskCreate(params TaskCreateParams) (TaskID, error) {
	if params.Entry == nil || params.Name == "" {
		return TaskID{}, ErrInvalidPointer
	}

	s.tasks.mu.Lock()
	index := -1
	for i, t := range s.tasks.slots {
		if !t.inUse {
			index = i
			break
		}
	}
	if index == -1 {
		index = len(s.tasks.slots)
		s.tasks.slots = append(s.tasks.slots, &taskSlot{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h := TaskID{newHandle(index)}
	slot := &taskSlot{inUse: true, handle: h, name: params.Name, cancel: cancel, done: done}
	s.tasks.slots[index] = slot
	s.tasks.mu.Unlock()

	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}

	async.Go(logger, "osal.task."+params.Name, func() {
		defer close(done)
		if err := params.Entry(ctx); err != nil {
			logger.Error("task exited with error", "task", params.Name, "error", err)
		}
	})

	return h, nil
}

// TaskDelete implements task_delete: cancel the task's context and free its
// slot. It does not wait for the task's goroutine to return.
func (s *Simulator) TaskDelete(id TaskID) error {
	s.tasks.mu.Lock()
	slot, err := s.tasks.lookup(id)
	if err != nil {
		s.tasks.mu.Unlock()
		return err
	}
	slot.cancel()
	slot.inUse = false
	s.tasks.mu.Unlock()
	return nil
}

// ConvertToArrayIndex implements OS_ConvertToArrayIndex.
func (s *Simulator) ConvertToArrayIndex(id TaskID) (int, error) {
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	if _, err := s.tasks.lookup(id); err != nil {
		return 0, err
	}
	return id.index, nil
}

// TaskIsAlive reports whether a task handle still refers to a live task.
func (s *Simulator) TaskIsAlive(id TaskID) bool {
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()
	_, err := s.tasks.lookup(id)
	return err == nil
}

func (t *taskTable) lookup(id TaskID) (*taskSlot, error) {
	if !id.Valid() || id.index < 0 || id.index >= len(t.slots) {
		return nil, ErrInvalidID
	}
	slot := t.slots[id.index]
	if !slot.inUse || slot.handle.generation != id.generation {
		return nil, fmt.Errorf("task %d: %w", id.index, ErrInvalidID)
	}
	return slot, nil
}
