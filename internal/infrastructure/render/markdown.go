package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

// MarkdownRenderer writes plain markdown.
type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

func (r *MarkdownRenderer) Render(w io.Writer, resp response.Response) error {
	_, err := io.WriteString(w, r.String(resp))
	return err
}

// String renders resp to a markdown string.
func (r *MarkdownRenderer) String(resp response.Response) string {
	v := buildView(resp)
	var b strings.Builder

	switch {
	case v.Unexpected:
		b.WriteString(UnexpectedNotice + "\n")
	case v.HasError && v.ErrorList:
		b.WriteString("**" + ErrorsLabel + "**\n\n")
		for _, m := range v.Messages {
			fmt.Fprintf(&b, "- %s\n", inline(m))
		}
	case v.HasError:
		fmt.Fprintf(&b, "**%s** %s\n", ErrorLabel, inline(v.Messages[0]))
	default:
		if v.Explanation != "" {
			fmt.Fprintf(&b, "**%s**\n\n", inline(v.Explanation))
		}
		for i, c := range v.Cards {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "### %s\n\n", inline(c.Title))
			fmt.Fprintf(&b, "- **Due:** %s\n", inline(c.DueDate))
			fmt.Fprintf(&b, "- **Hours:** %s\n", inline(c.Hours))
			fmt.Fprintf(&b, "- **Importance:** %s\n", inline(c.Importance))
			fmt.Fprintf(&b, "- **Score:** %s\n", inline(c.Score))
			fmt.Fprintf(&b, "- **Priority:** `%s`\n", c.Tier)
		}
	}
	return b.String()
}

// inline folds service text onto one line so it cannot open new markdown
// blocks such as headings or list items.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RichRenderer styles the markdown rendering for terminals with glamour.
type RichRenderer struct {
	md       *MarkdownRenderer
	wordWrap int
}

// NewRichRenderer creates a glamour-backed renderer. A wordWrap of 0 uses 80.
func NewRichRenderer(wordWrap int) *RichRenderer {
	if wordWrap <= 0 {
		wordWrap = 80
	}
	return &RichRenderer{md: NewMarkdownRenderer(), wordWrap: wordWrap}
}

func (r *RichRenderer) Render(w io.Writer, resp response.Response) error {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.wordWrap),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := tr.Render(r.md.String(resp))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
