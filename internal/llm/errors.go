package llm

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding provider could not be
	// reached, timed out, or rejected the input. Callers decide per call
	// site whether this is fatal (index rebuild) or recoverable (skip one
	// record, degrade to the no-cache path).
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGenerationUnavailable indicates the generation provider could not
	// be reached, timed out, or rejected the input. Recoverable: the query
	// fails, the process does not.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
)
