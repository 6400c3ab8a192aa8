package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

// Styles
var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1).
			PaddingRight(1)

	errorBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			PaddingLeft(1).
			PaddingRight(1)

	titleStyle       = lipgloss.NewStyle().Bold(true)
	labelStyle       = lipgloss.NewStyle().Bold(true)
	explanationStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	tagBase = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1)
)

var tierStyles = map[scoring.Tier]lipgloss.Style{
	scoring.TierHigh:   tagBase.Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("196")),
	scoring.TierMedium: tagBase.Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("208")),
	scoring.TierLow:    tagBase.Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("42")),
}

// TierStyle returns the tag style for a tier.
func TierStyle(t scoring.Tier) lipgloss.Style {
	if s, ok := tierStyles[t]; ok {
		return s
	}
	return tagBase
}

// TextRenderer draws bordered cards for terminals.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) Render(w io.Writer, resp response.Response) error {
	_, err := io.WriteString(w, r.String(resp))
	return err
}

// String renders resp to a string.
func (r *TextRenderer) String(resp response.Response) string {
	v := buildView(resp)

	if v.Unexpected {
		return noticeStyle.Render(UnexpectedNotice) + "\n"
	}

	if v.HasError {
		var body string
		if v.ErrorList {
			lines := append([]string{labelStyle.Render(ErrorsLabel)}, v.Messages...)
			body = strings.Join(lines, "\n")
		} else {
			body = labelStyle.Render(ErrorLabel) + " " + v.Messages[0]
		}
		return errorBoxStyle.Render(body) + "\n"
	}

	var b strings.Builder
	if v.Explanation != "" {
		b.WriteString(explanationStyle.Render(v.Explanation))
		b.WriteString("\n\n")
	}
	for _, c := range v.Cards {
		b.WriteString(renderCard(c))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCard(c cardView) string {
	field := func(label, value string) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(label), value)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(c.Title),
		field("Due:", c.DueDate),
		field("Hours:", c.Hours),
		field("Importance:", c.Importance),
		field("Score:", c.Score),
		TierStyle(c.Tier).Render(c.Tier.String()),
	))
}
