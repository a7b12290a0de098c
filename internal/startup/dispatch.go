package startup

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"alm/internal/registry"
)

// ErrTooFewTokens is returned when a record has fewer than the 8 required
// fields.
var ErrTooFewTokens = errors.New("startup: record has fewer than 8 tokens")

// AppCreator is C4's entry point as seen by the dispatcher.
type AppCreator interface {
	CreateApp(ctx context.Context, e Entry) error
}

// LibLoader is C3's entry point as seen by the dispatcher.
type LibLoader interface {
	LoadLibrary(ctx context.Context, e Entry) error
}

// Dispatch implements C2: validate token count, parse fields, and route to
// CreateApp or LoadLibrary by the type token. An unrecognized type is
// logged and discarded rather than treated as fatal, since one bad record
// in a startup script should not abort the rest.
func Dispatch(ctx context.Context, tokens []string, logger *slog.Logger, apps AppCreator, libs LibLoader) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(tokens) < 8 {
		logger.Warn("startup: dropping record with too few tokens", "count", len(tokens))
		return ErrTooFewTokens
	}

	e := parseEntry(tokens)

	switch e.Type {
	case EntryTypeApp:
		return apps.CreateApp(ctx, e)
	case EntryTypeLib:
		return libs.LoadLibrary(ctx, e)
	default:
		logger.Warn("startup: unrecognized entry type, discarding record", "type", e.Type)
		return nil
	}
}

func parseEntry(tokens []string) Entry {
	e := Entry{
		Type:        strings.TrimSpace(tokens[0]),
		FilePath:    strings.TrimSpace(tokens[1]),
		EntrySymbol: strings.TrimSpace(tokens[2]),
		Name:        strings.TrimSpace(tokens[3]),
		Priority:    uint8(parsePermissiveUint(tokens[4])),
		StackSize:   uint32(parsePermissiveUint(tokens[5])),
		Reserved:    strings.TrimSpace(tokens[6]),
	}

	action := registry.ExceptionAction(parsePermissiveUint(tokens[7]))
	if action != registry.ExceptionRestartApp && action != registry.ExceptionProcRestart {
		action = registry.ExceptionProcRestart
	}
	e.ExceptionAction = action
	return e
}

// parsePermissiveUint mimics strtoul's tolerance for trailing garbage: the
// base is chosen from a 0x/0 prefix, then only the longest valid-digit
// prefix for that base is consumed and anything after it is ignored; a
// field that starts with no digits at all yields 0 rather than an error.
func parsePermissiveUint(s string) uint64 {
	s = strings.TrimSpace(s)
	base := 10
	start := 0
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base = 16
		start = 2
	case strings.HasPrefix(s, "0") && len(s) > 1:
		base = 8
		start = 1
	}

	end := start
	for end < len(s) && isDigitForBase(s[end], base) {
		end++
	}
	if end == start {
		return 0
	}
	v, err := strconv.ParseUint(s[start:end], base, 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigitForBase(c byte, base int) bool {
	switch {
	case base == 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	case base == 8:
		return c >= '0' && c <= '7'
	default:
		return c >= '0' && c <= '9'
	}
}
