// Package startup implements the bootstrap-script tokenizer (C1) and entry
// dispatcher (C2): reading a line-oriented startup file and turning each
// record into a validated app-create or library-load call.
package startup

import "alm/internal/registry"

// BufferCapacity bounds the raw bytes (including comma delimiters) a single
// record may occupy before it is flagged too-long and dropped, mirroring
// ES_START_BUFF_SIZE in the original startup parser.
const BufferCapacity = 128

// MaxTokensPerLine bounds how many comma-separated fields are kept per
// record; fields beyond this are silently discarded without flagging.
const MaxTokensPerLine = 20

// Entry type literals recognized at token position 0.
const (
	EntryTypeApp = "CFE_APP"
	EntryTypeLib = "CFE_LIB"
)

// ResetType selects which startup-file path is attempted first.
type ResetType int

const (
	ResetProcessor ResetType = iota
	ResetPowerOn
)

// Entry is one parsed startup-script record, token positions 0-7 per
// spec.md §6:
//
//	<type>, <file_path>, <entry_symbol>, <name>, <priority>, <stack>, <reserved>, <exception_action> ;
type Entry struct {
	Type            string
	FilePath        string
	EntrySymbol     string
	Name            string
	Priority        uint8
	StackSize       uint32
	Reserved        string // position 6: parsed, never read (preserved open slot)
	ExceptionAction registry.ExceptionAction
}
