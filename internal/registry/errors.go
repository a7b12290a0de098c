package registry

import "errors"

// Error taxonomy from spec.md §7.
var (
	ErrBadArgument     = errors.New("registry: bad argument")
	ErrNoFreeSlot      = errors.New("registry: no free slot")
	ErrAlreadyLoaded   = errors.New("registry: library already loaded")
	ErrAppCreate       = errors.New("registry: app create failed")
	ErrLoadLib         = errors.New("registry: load library failed")
	ErrAppCleanup      = errors.New("registry: app cleanup degraded")
	ErrChildTaskDelete = errors.New("registry: child task delete failed")
	ErrQueueDelete     = errors.New("registry: queue delete failed")
	ErrBinSemDelete    = errors.New("registry: binary semaphore delete failed")
	ErrCountSemDelete  = errors.New("registry: counting semaphore delete failed")
	ErrMutexDelete     = errors.New("registry: mutex delete failed")
	ErrTimerDelete     = errors.New("registry: timer delete failed")
	ErrTaskDelete      = errors.New("registry: task delete failed")
	ErrUnknownApp      = errors.New("registry: unknown app index")
)
