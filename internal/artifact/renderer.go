package artifact

import (
	"fmt"
	"strings"
	"time"
)

// Rendered is a deliverable artifact produced from a document's type and
// content.
type Rendered struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Renderer produces the deliverable artifact for a document.
type Renderer interface {
	Render(documentType, content string) (*Rendered, error)
}

// TextRenderer produces a plain-text deliverable with a standard header.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer { return &TextRenderer{} }

func (r *TextRenderer) Render(documentType, content string) (*Rendered, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("render %s: document has no content", documentType)
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.ReplaceAll(documentType, "_", " ")))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Generated %s\n", time.Now().UTC().Format(time.RFC3339)))
	return &Rendered{
		Data:        []byte(b.String()),
		ContentType: "text/plain; charset=utf-8",
		Filename:    documentType + ".txt",
	}, nil
}
