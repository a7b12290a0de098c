package osal

import (
	"fmt"
	"sync"
)

type moduleSlot struct {
	inUse      bool
	handle     ModuleHandle
	name       string
	filePath   string
	entryPoint string
	symbols    map[string]EntryFunc
}

// moduleTable is a claim-then-populate slot table, the same shape as
// internal/devops/port.Allocator's reservation map but indexed by slot
// rather than by port number since module handles need stable indices for
// generation-checked reuse.
type moduleTable struct {
	mu    sync.Mutex
	slots []*moduleSlot
	byPath map[string]map[string]EntryFunc // registered but not yet loaded
}

func newModuleTable() *moduleTable {
	return &moduleTable{byPath: make(map[string]map[string]EntryFunc)}
}

// RegisterModule makes a module resolvable by file path, standing in for
// what a real dynamic loader would read out of the object file itself.
// Must be called before ModuleLoad for that path.
func (s *Simulator) RegisterModule(filePath string, symbols map[string]EntryFunc) {
	s.modules.mu.Lock()
	defer s.modules.mu.Unlock()
	cp := make(map[string]EntryFunc, len(symbols))
	for k, v := range symbols {
		cp[k] = v
	}
	s.modules.byPath[filePath] = cp
}

// ModuleLoad implements OS_ModuleLoad: claim a free slot, resolve the
// registration for filePath, populate the slot.
func (s *Simulator) ModuleLoad(name, filePath string) (ModuleHandle, error) {
	if name == "" || filePath == "" {
		return ModuleHandle{}, ErrInvalidPointer
	}

	s.modules.mu.Lock()
	defer s.modules.mu.Unlock()

	for _, m := range s.modules.slots {
		if m.inUse && m.name == name {
			return ModuleHandle{}, fmt.Errorf("module %s: %w", name, ErrNameTaken)
		}
	}

	symbols, ok := s.modules.byPath[filePath]
	if !ok {
		return ModuleHandle{}, fmt.Errorf("load %s: %w", filePath, ErrNotRegistered)
	}

	index := -1
	for i, m := range s.modules.slots {
		if !m.inUse {
			index = i
			break
		}
	}
	if index == -1 {
		index = len(s.modules.slots)
		s.modules.slots = append(s.modules.slots, &moduleSlot{})
	}

	h := ModuleHandle{newHandle(index)}
	s.modules.slots[index] = &moduleSlot{
		inUse:    true,
		handle:   h,
		name:     name,
		filePath: filePath,
		symbols:  symbols,
	}
	return h, nil
}

// ModuleUnload implements OS_ModuleUnload.
func (s *Simulator) ModuleUnload(h ModuleHandle) error {
	s.modules.mu.Lock()
	defer s.modules.mu.Unlock()

	slot, err := s.modules.lookup(h)
	if err != nil {
		return err
	}
	slot.inUse = false
	slot.symbols = nil
	return nil
}

// ModuleInfo implements OS_ModuleInfo.
func (s *Simulator) ModuleInfo(h ModuleHandle) (ModuleInfo, error) {
	s.modules.mu.Lock()
	defer s.modules.mu.Unlock()

	slot, err := s.modules.lookup(h)
	if err != nil {
		return ModuleInfo{}, err
	}
	return ModuleInfo{
		Name:       slot.name,
		FilePath:   slot.filePath,
		EntryPoint: slot.entryPoint,
		Valid:      true,
	}, nil
}

// SymbolLookup implements OS_SymbolLookup, scoped to a module handle rather
// than a free-floating process-wide symbol table: the FFI boundary this
// narrows requires proof the symbol was registered against the very module
// that was successfully loaded into h.
func (s *Simulator) SymbolLookup(h ModuleHandle, symbol string) (EntryFunc, error) {
	s.modules.mu.Lock()
	defer s.modules.mu.Unlock()

	slot, err := s.modules.lookup(h)
	if err != nil {
		return nil, err
	}
	fn, ok := slot.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	slot.entryPoint = symbol
	return fn, nil
}

func (t *moduleTable) lookup(h ModuleHandle) (*moduleSlot, error) {
	if !h.Valid() || h.index < 0 || h.index >= len(t.slots) {
		return nil, ErrInvalidID
	}
	slot := t.slots[h.index]
	if !slot.inUse || slot.handle.generation != h.generation {
		return nil, ErrInvalidID
	}
	return slot, nil
}
