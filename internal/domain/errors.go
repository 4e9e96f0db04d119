package domain

import "errors"

// Sentinel errors shared across layers. Lower layers wrap these with
// context via fmt.Errorf("...: %w", ...); callers test with errors.Is.
var (
	// ErrInvalidArgument marks validation failures rejected at the
	// boundary before any encoder or index call is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a named index does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSearchFailed wraps any downstream failure of the encode+query
	// path. Search never returns partial results.
	ErrSearchFailed = errors.New("search failed")

	// ErrChatUnavailable indicates the generation backend is not
	// configured; search stays available in this state.
	ErrChatUnavailable = errors.New("chat unavailable")

	// ErrGenerationFailed is returned when every candidate model in the
	// fallback chain has failed.
	ErrGenerationFailed = errors.New("generation failed")
)
