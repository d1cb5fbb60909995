// Package documents loads planning documents from disk and converts
// them into the structured form the synchronization engine consumes.
package documents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/models"
)

// Loader reads strategic and action plan documents. JSON files are
// decoded directly; markdown files go through the markdown processor.
type Loader struct {
	processor *Processor
	logger    arbor.ILogger
}

// NewLoader creates a document loader
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{
		processor: NewProcessor(logger),
		logger:    logger,
	}
}

// Load reads a document from path and validates it. A missing file is
// ErrInputNotFound; a file that parses but fails schema validation is a
// ValidationError.
func (l *Loader) Load(path, documentType string) (*models.StructuredDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", path, common.ErrInputNotFound)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	var doc *models.StructuredDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc, err = l.processor.Process(data, documentType)
		if err != nil {
			return nil, err
		}
	default:
		doc = &models.StructuredDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, &common.ValidationError{
				Document: path,
				Reason:   fmt.Sprintf("invalid JSON: %v", err),
			}
		}
	}

	if doc.ID == "" {
		doc.ID = common.NewDocumentID()
	}
	if doc.DocumentType == "" {
		doc.DocumentType = documentType
	}
	assignSectionIDs(doc)

	if doc.DocumentType != documentType {
		return nil, &common.ValidationError{
			Document: path,
			Reason:   fmt.Sprintf("expected a %s document, got %s", documentType, doc.DocumentType),
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, &common.ValidationError{
			Document: path,
			Reason:   err.Error(),
		}
	}

	l.logger.Info().
		Str("path", path).
		Str("document_type", doc.DocumentType).
		Str("title", doc.Title).
		Int("sections", len(doc.Sections)).
		Msg("Loaded document")

	return doc, nil
}

// assignSectionIDs fills in ids the source document omitted so every
// section, objective, and action is addressable
func assignSectionIDs(doc *models.StructuredDocument) {
	for i := range doc.Sections {
		section := &doc.Sections[i]
		if section.ID == "" {
			section.ID = fmt.Sprintf("sec_%d", i+1)
		}
		for j := range section.Objectives {
			if section.Objectives[j].ID == "" {
				section.Objectives[j].ID = fmt.Sprintf("%s_obj_%d", section.ID, j+1)
			}
		}
		for j := range section.Actions {
			if section.Actions[j].ID == "" {
				section.Actions[j].ID = fmt.Sprintf("%s_act_%d", section.ID, j+1)
			}
		}
	}
}
