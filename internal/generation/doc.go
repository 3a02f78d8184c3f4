// Package generation provides interfaces and implementations for interacting
// with external AI services for media content generation. It abstracts the
// details of LLM API integration (Gemini), allowing the pipeline to request
// captions and descriptions for media payloads without coupling to a specific
// external service.
package generation
