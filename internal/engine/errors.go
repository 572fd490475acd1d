package engine

import (
	"errors"
	"fmt"
)

// Sentinel engine errors, following the same table-driven pattern as
// the HTTP collaborator's own sentinel errors: check with errors.Is,
// map to a public status elsewhere.
var (
	// ErrNoExchangeRate is fatal to a run: a cross-currency conversion
	// was attempted with neither a direct nor an inverse rate configured.
	ErrNoExchangeRate = errors.New("engine: no exchange rate for currency pair")

	// ErrDagCycle and ErrDagUnknownDependency should never fire against
	// the fixed eight-node kernel graph, but the resolver detects them
	// unconditionally.
	ErrDagCycle             = errors.New("engine: dependency cycle in day-step graph")
	ErrDagUnknownDependency = errors.New("engine: unknown dependency in day-step graph")

	// ErrInvariant is the catch-all for any invariant breach the kernel
	// detects mid-run (non-finite intermediate, negative asset value
	// surviving its clamp, and so on).
	ErrInvariant = errors.New("engine: invariant violation")
)

// wrapf wraps a sentinel error with additional context, preserving
// errors.Is compatibility via %w.
func wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
