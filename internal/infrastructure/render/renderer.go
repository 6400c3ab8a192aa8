package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

// Renderer writes a response to w. Implementations must handle every
// response variant, including Malformed, without returning an error for
// content reasons; errors only come from the writer.
type Renderer interface {
	Render(w io.Writer, resp response.Response) error
}

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatRich     Format = "rich"
	FormatJSON     Format = "json"
)

// AllFormats returns the supported formats.
func AllFormats() []Format {
	return []Format{FormatText, FormatHTML, FormatMarkdown, FormatRich, FormatJSON}
}

// ParseFormat parses a format name. An empty name selects FormatText.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range AllFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// New returns the renderer for a format.
func New(f Format) (Renderer, error) {
	switch f {
	case FormatText, "":
		return NewTextRenderer(), nil
	case FormatHTML:
		return NewHTMLRenderer()
	case FormatMarkdown:
		return NewMarkdownRenderer(), nil
	case FormatRich:
		return NewRichRenderer(0), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, resp response.Response) error

func (f RendererFunc) Render(w io.Writer, resp response.Response) error {
	return f(w, resp)
}
