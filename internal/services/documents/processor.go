package documents

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/concordia/internal/models"
)

// Processor converts markdown planning documents into the structured
// form. The expected shape is a level-1 heading for the title, level-2
// headings for sections, and list items for objectives or actions.
type Processor struct {
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

// NewProcessor creates a markdown document processor
func NewProcessor(logger arbor.ILogger) *Processor {
	return &Processor{
		markdown: goldmark.New(),
		logger:   logger,
	}
}

// Process parses markdown into a structured document. List items become
// objectives in strategic documents and action items in action
// documents. Metadata lines before the first section ("Organization:",
// "Planning Period:", "Total Budget:") populate the document header.
func (p *Processor) Process(source []byte, documentType string) (*models.StructuredDocument, error) {
	doc := &models.StructuredDocument{
		DocumentType: documentType,
	}

	root := p.markdown.Parser().Parse(text.NewReader(source))

	var current *models.Section
	flush := func() {
		if current != nil {
			doc.Sections = append(doc.Sections, *current)
			current = nil
		}
	}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, source)
			if n.Level == 1 && doc.Title == "" {
				doc.Title = title
				continue
			}
			flush()
			current = &models.Section{Title: title}

		case *ast.Paragraph:
			content := nodeText(n, source)
			if current == nil {
				p.applyMetadata(doc, content)
				continue
			}
			if current.Content != "" {
				current.Content += "\n"
			}
			current.Content += content

		case *ast.List:
			if current == nil {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				itemText := nodeText(item, source)
				if itemText == "" {
					continue
				}
				title, description := splitStatement(itemText)
				if documentType == models.DocumentTypeAction {
					current.Actions = append(current.Actions, models.ActionItem{
						Title:       title,
						Description: description,
					})
				} else {
					current.Objectives = append(current.Objectives, models.Objective{
						Title:       title,
						Description: description,
					})
				}
			}
		}
	}
	flush()

	p.logger.Debug().
		Str("title", doc.Title).
		Str("document_type", documentType).
		Int("sections", len(doc.Sections)).
		Msg("Processed markdown document")

	return doc, nil
}

// applyMetadata interprets "Key: Value" lines in the document preamble
func (p *Processor) applyMetadata(doc *models.StructuredDocument, content string) {
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "organization":
			doc.Organization = value
		case "planning period":
			doc.PlanningPeriod = value
		case "total budget":
			doc.TotalBudget = value
		}
	}
}

// splitStatement separates a list item into title and description at
// the first sentence boundary
func splitStatement(statement string) (string, string) {
	title, description, found := strings.Cut(statement, ". ")
	if !found {
		return strings.TrimSpace(statement), ""
	}
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

// nodeText collects the plain text of a node and its descendants
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			sb.Write(textNode.Segment.Value(source))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
