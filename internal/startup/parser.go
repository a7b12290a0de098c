package startup

import (
	"bufio"
	"io"
	"log/slog"
)

// OpenFirst tries the volatile path first, falling back to the nonvolatile
// path, mirroring spec.md §6's two-file policy keyed by ResetType. On a
// PowerOn reset the volatile copy is skipped entirely since it may be stale
// or absent after a cold boot.
func OpenFirst(reset ResetType, open func(path string) (io.ReadCloser, error), volatilePath, nonvolatilePath string) (io.ReadCloser, error) {
	if reset == ResetProcessor {
		if rc, err := open(volatilePath); err == nil {
			return rc, nil
		}
	}
	return open(nonvolatilePath)
}

// Parse reads a character stream and invokes handle once per syntactically
// complete record (tokens between commas, terminated by a semicolon).
// Parsing stops at the first '!' byte or at end of stream, whichever comes
// first; records that overflow BufferCapacity are dropped at their
// semicolon and logged rather than handed to handle.
//
// This mirrors the original's byte-at-a-time scan: whitespace (<= 0x20) is
// ignored everywhere, ',' ends a token, ';' ends a record, '!' is the
// end-of-file sentinel. Fields beyond MaxTokensPerLine-1 are discarded
// silently rather than flagged as an error.
func Parse(r io.Reader, logger *slog.Logger, handle func(tokens []string)) error {
	if logger == nil {
		logger = slog.Default()
	}
	br := bufio.NewReader(r)

	var tokens []string
	var cur []byte
	rawLen := 0
	tooLong := false

	flushToken := func() {
		if len(tokens) < MaxTokensPerLine {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	resetRecord := func() {
		tokens = nil
		cur = cur[:0]
		rawLen = 0
		tooLong = false
	}

	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case b == '!':
			return nil
		case b <= 0x20:
			continue
		case b == ',':
			rawLen++
			if rawLen > BufferCapacity {
				tooLong = true
				continue
			}
			flushToken()
		case b == ';':
			rawLen++
			if rawLen > BufferCapacity {
				tooLong = true
			}
			if tooLong {
				logger.Warn("startup: record exceeds buffer capacity, dropped", "capacity", BufferCapacity)
				resetRecord()
				continue
			}
			flushToken()
			rec := tokens
			resetRecord()
			handle(rec)
		default:
			rawLen++
			if rawLen > BufferCapacity {
				tooLong = true
				continue
			}
			cur = append(cur, b)
		}
	}
}
