package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique analysis run ID
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewDocumentID generates a unique document ID
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewEntityID generates a unique entity ID
// Format: ent_<uuid>
func NewEntityID() string {
	return "ent_" + uuid.New().String()
}
