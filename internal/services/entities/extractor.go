// Package entities extracts typed entities from structured planning
// documents and matches them across the strategic/action boundary.
package entities

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

var (
	// $2.5 million, €300k, £1,200,000
	currencySymbolRegex = regexp.MustCompile(`(?i)[$€£]\s?\d+(?:,\d{3})*(?:\.\d+)?\s?(?:billion|million|thousand|bn|m|k)?\b`)
	// 2.5 million dollars
	currencyWordRegex = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:billion|million|thousand)\s?(?:dollars|euros|pounds)\b`)
	// 15% ROE by fiscal 2026 - a percentage figure plus its trailing
	// context up to the next clause boundary
	kpiRegex = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?(?:%|percent|per cent)[^.;,\n]{0,48}`)
	// Q3 2026, by end of 2027, December 2026, FY2026
	quarterRegex  = regexp.MustCompile(`(?i)\bQ[1-4]\s+20\d{2}\b`)
	deadlineRegex = regexp.MustCompile(`(?i)\b(?:by|before|until|through|within)\s+(?:the\s+end\s+of\s+)?(?:fiscal\s+(?:year\s+)?)?20\d{2}\b`)
	monthRegex    = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+20\d{2}\b`)
	fiscalRegex   = regexp.MustCompile(`(?i)\bFY\s?20\d{2}\b`)
)

// metricKeywords are well-known performance indicator names tracked as
// METRIC entities wherever they appear.
var metricKeywords = []string{
	"roe", "roi", "roa", "nps", "cagr", "ebitda", "arpu",
	"market share", "customer retention", "customer satisfaction",
	"customer acquisition", "employee engagement", "revenue growth",
	"conversion rate", "churn rate", "churn", "headcount",
	"operating margin", "gross margin", "net promoter score",
	"time to market", "cost reduction", "uptime",
}

var metricRegex = buildMetricRegex()

func buildMetricRegex() *regexp.Regexp {
	escaped := make([]string, len(metricKeywords))
	for i, kw := range metricKeywords {
		escaped[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

// Extractor pulls typed entities out of a structured document using
// pattern recognizers, with an optional LLM recognizer for goals and
// initiatives that carry no extractable figure.
type Extractor struct {
	recognizer interfaces.EntityRecognizer
	logger     arbor.ILogger
}

// NewExtractor creates an entity extractor. recognizer may be nil, in
// which case only pattern-based extraction runs.
func NewExtractor(recognizer interfaces.EntityRecognizer, logger arbor.ILogger) *Extractor {
	return &Extractor{
		recognizer: recognizer,
		logger:     logger,
	}
}

// Extract returns the typed entities of a document in document order.
// Duplicate facts (same type and normalized value) are reported once.
// Recognizer failures degrade to pattern-only extraction; they never
// fail the pass.
func (e *Extractor) Extract(ctx context.Context, doc *models.StructuredDocument) []models.Entity {
	var entities []models.Entity
	seen := make(map[string]bool)

	add := func(entityType models.EntityType, text, sectionID string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		normalized := Normalize(text)
		key := string(entityType) + "|" + normalized
		if seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, models.Entity{
			ID:              common.NewEntityID(),
			Type:            entityType,
			Text:            text,
			NormalizedValue: normalized,
			DocumentID:      doc.ID,
			SectionID:       sectionID,
		})
	}

	for _, section := range doc.Sections {
		texts := []string{section.Content}
		for _, objective := range section.Objectives {
			texts = append(texts, objective.Text())
		}
		for _, action := range section.Actions {
			texts = append(texts, action.Text())
		}

		for _, text := range texts {
			e.extractPatterns(text, section.ID, add)
		}

		e.recognizeSpans(ctx, section, add)
	}

	e.logger.Debug().
		Str("document_id", doc.ID).
		Str("document_type", doc.DocumentType).
		Int("entity_count", len(entities)).
		Msg("Extracted entities")

	return entities
}

func (e *Extractor) extractPatterns(text, sectionID string, add func(models.EntityType, string, string)) {
	for _, span := range kpiRegex.FindAllString(text, -1) {
		add(models.EntityTypeKPI, span, sectionID)
	}
	for _, span := range currencySymbolRegex.FindAllString(text, -1) {
		add(models.EntityTypeBudget, span, sectionID)
	}
	for _, span := range currencyWordRegex.FindAllString(text, -1) {
		add(models.EntityTypeBudget, span, sectionID)
	}
	for _, pattern := range []*regexp.Regexp{quarterRegex, deadlineRegex, monthRegex, fiscalRegex} {
		for _, span := range pattern.FindAllString(text, -1) {
			add(models.EntityTypeTimeline, span, sectionID)
		}
	}
	for _, span := range metricRegex.FindAllString(text, -1) {
		add(models.EntityTypeMetric, span, sectionID)
	}
}

// recognizeSpans runs the LLM recognizer over objective and action
// statements to pick up goals and initiatives the patterns cannot see
func (e *Extractor) recognizeSpans(ctx context.Context, section models.Section, add func(models.EntityType, string, string)) {
	if e.recognizer == nil {
		return
	}

	var statements []string
	for _, objective := range section.Objectives {
		statements = append(statements, objective.Text())
	}
	for _, action := range section.Actions {
		statements = append(statements, action.Text())
	}

	for _, statement := range statements {
		spans, err := e.recognizer.Recognize(ctx, statement)
		if err != nil {
			e.logger.Warn().
				Str("section_id", section.ID).
				Err(err).
				Msg("Entity recognizer failed, continuing with pattern entities")
			return
		}
		for _, span := range spans {
			add(mapTypeLabel(span.TypeLabel), span.Text, section.ID)
		}
	}
}

func mapTypeLabel(label string) models.EntityType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "GOAL":
		return models.EntityTypeGoal
	case "INITIATIVE":
		return models.EntityTypeInitiative
	case "KPI":
		return models.EntityTypeKPI
	case "BUDGET":
		return models.EntityTypeBudget
	case "TIMELINE":
		return models.EntityTypeTimeline
	case "METRIC":
		return models.EntityTypeMetric
	default:
		return models.EntityTypeOther
	}
}
