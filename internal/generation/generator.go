package generation

import (
	"context"
)

// Request describes one piece of media to generate a description for.
type Request struct {
	// Key identifies the source media, typically a fingerprint hash plus
	// the operation name; it doubles as the cache key downstream
	Key string

	// Prompt is the instruction sent alongside the media payload
	Prompt string

	// Data holds the source media bytes; may be empty for text-only prompts
	Data []byte

	// MimeType tags Data (e.g. "image/jpeg"); required when Data is set
	MimeType string
}

// Generator defines the interface for producing textual descriptions of
// media. It serves as a boundary between the application core and external
// AI services: callers never see which provider fulfilled the request.
//
// Implementations do not retry; retry policy belongs to the task closures
// that wrap these calls for batch dispatch.
type Generator interface {
	// Describe produces a description for the given request. The context
	// is honored for the duration of the underlying API call.
	Describe(ctx context.Context, req Request) (string, error)
}
