package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

var interactiveFormat string

var interactiveCmd = &cobra.Command{
	Use:   "interactive [file]",
	Short: "Analyze tasks in a terminal UI",
	Long: `Opens a terminal UI with a task editor, a strategy selector and one
results pane. An optional file preloads the editor.

Keys: ctrl+a analyze, ctrl+s suggest, ctrl+t next strategy,
tab switch focus, pgup/pgdown scroll results, esc or ctrl+c quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("TRIAGE_SKIP_INTERACTIVE_RUN") == "true" {
			return nil
		}

		var initial string
		if len(args) == 1 {
			data, err := os.ReadFile(args[0]) // #nosec G304 -- user-selected task file
			if err != nil {
				return NewCLIError("cannot read task file", "Check the path", err)
			}
			initial = string(data)
		}

		services, err := loadServices(cmd)
		if err != nil {
			return err
		}
		d, err := services.NewDispatcher(interactiveFormat)
		if err != nil {
			return NewCLIError("unsupported output format", "Use one of: "+formatNames(), err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		m := newInteractiveModel(ctx, d, scoring.Strategy(services.Config.Strategy), initial)
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("interactive run failed: %w", err)
		}
		return nil
	},
}

func init() {
	interactiveCmd.Flags().StringVarP(&interactiveFormat, "format", "f", "text", "Results format: text, markdown or rich")
	_ = interactiveCmd.RegisterFlagCompletionFunc("format", completeFormats)
	RootCmd.AddCommand(interactiveCmd)
}

// Styles
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var paneStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))

var focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("#7D56F4"))

var alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
var sendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

const (
	editorHeight = 8
	chromeHeight = editorHeight + 9
)

// dispatchDoneMsg reports the outcome of one trigger.
type dispatchDoneMsg struct {
	trigger dispatch.Trigger
	err     error
}

type interactiveModel struct {
	ctx        context.Context
	dispatcher *dispatch.Dispatcher
	editor     textarea.Model
	results    viewport.Model
	strategy   scoring.Strategy
	alert      string
	sending    bool
	focusOut   bool
	ready      bool
}

func newInteractiveModel(ctx context.Context, d *dispatch.Dispatcher, strategy scoring.Strategy, initial string) interactiveModel {
	ta := textarea.New()
	ta.Placeholder = `[{"title": "Write report", "due_date": "2025-01-31", "estimated_hours": 3, "importance": 8}]`
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(editorHeight)
	ta.SetValue(initial)
	ta.Focus()

	if strategy == "" {
		strategy = scoring.DefaultStrategy
	}

	return interactiveModel{
		ctx:        ctx,
		dispatcher: d,
		editor:     ta,
		results:    viewport.New(80, 12),
		strategy:   strategy,
	}
}

func (m interactiveModel) Init() tea.Cmd { return textarea.Blink }

func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width < 20 {
			width = 20
		}
		height := msg.Height - chromeHeight
		if height < 3 {
			height = 3
		}
		m.editor.SetWidth(width)
		m.results.Width = width
		m.results.Height = height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "ctrl+a":
			return m.fire(dispatch.TriggerAnalyze)
		case "ctrl+s":
			return m.fire(dispatch.TriggerSuggest)
		case "ctrl+t":
			m.strategy = m.strategy.Next()
			return m, nil
		case "tab":
			m.focusOut = !m.focusOut
			if m.focusOut {
				m.editor.Blur()
				return m, nil
			}
			return m, m.editor.Focus()
		}

	case dispatchDoneMsg:
		if errors.Is(msg.err, dispatch.ErrSuperseded) {
			return m, nil
		}
		m.sending = m.dispatcher.State() == dispatch.StateSending
		if msg.err != nil {
			m.alert = MapError(msg.err).Error()
			return m, nil
		}
		m.alert = ""
		m.results.SetContent(m.dispatcher.Region().Content())
		m.results.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusOut {
		m.results, cmd = m.results.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

// fire starts a dispatch in the background. A newer trigger supersedes it.
func (m interactiveModel) fire(trigger dispatch.Trigger) (tea.Model, tea.Cmd) {
	ctx, d := m.ctx, m.dispatcher
	raw, strategy := m.editor.Value(), string(m.strategy)
	m.sending = true
	return m, func() tea.Msg {
		return dispatchDoneMsg{trigger: trigger, err: d.Dispatch(ctx, trigger, raw, strategy)}
	}
}

func (m interactiveModel) View() string {
	header := headerStyle.Render("triage") + "  " +
		fmt.Sprintf("Strategy: %s", m.strategy.Label())

	editorPane, resultsPane := focusedPaneStyle, paneStyle
	if m.focusOut {
		editorPane, resultsPane = paneStyle, focusedPaneStyle
	}

	status := ""
	switch {
	case m.alert != "":
		status = alertStyle.Render(m.alert)
	case m.sending:
		status = sendingStyle.Render("Sending...")
	}

	help := helpStyle.Render("[ctrl+a] Analyze  [ctrl+s] Suggest  [ctrl+t] Strategy  [tab] Focus  [esc] Quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		editorPane.Render(m.editor.View()),
		status,
		resultsPane.Render(m.results.View()),
		help,
	) + "\n"
}
