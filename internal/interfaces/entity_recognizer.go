package interfaces

import (
	"context"
)

// RecognizedSpan is one typed span returned by an entity recognizer
type RecognizedSpan struct {
	Text      string
	TypeLabel string // GOAL or INITIATIVE
}

// EntityRecognizer is the optional named-entity recognition fallback
// used by the entity extractor for GOAL and INITIATIVE entities that
// pattern recognizers cannot capture. Implementations may call an
// external model; a nil recognizer disables the fallback.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]RecognizedSpan, error)
}
