package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/internal/infrastructure/watch"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

type triggerOptions struct {
	tasks    string
	format   string
	strategy string
	watch    bool
	debounce time.Duration
	timeout  time.Duration
	retries  int
}

var analyzeCmd = newTriggerCmd(dispatch.TriggerAnalyze,
	"Score and rank a task list",
	`Sends the task list to the analyze endpoint with the chosen strategy and
prints one card per task, tagged HIGH, MEDIUM or LOW.

The task list is read from a file, from stdin ('-' or no argument), or from
--tasks. With --watch the list is re-analyzed whenever the file changes.`)

var suggestCmd = newTriggerCmd(dispatch.TriggerSuggest,
	"Suggest what to work on today",
	`Sends the task list to the suggest endpoint and prints the service's
explanation followed by the suggested tasks.

The task list is read from a file, from stdin ('-' or no argument), or from
--tasks. With --watch the suggestion is refreshed whenever the file changes.`)

func newTriggerCmd(trigger dispatch.Trigger, short, long string) *cobra.Command {
	opts := &triggerOptions{}
	cmd := &cobra.Command{
		Use:   string(trigger) + " [file|-]",
		Short: short,
		Long:  long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrigger(cmd, trigger, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.tasks, "tasks", "", "Task list as inline JSON")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, html, markdown, rich or json (overrides format)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run whenever the task file changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change triggers a re-run")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout, 0 to wait indefinitely (overrides timeout)")
	cmd.Flags().IntVar(&opts.retries, "retries", 1, "Attempts per request (overrides retries)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	if trigger == dispatch.TriggerAnalyze {
		cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "Ranking strategy: smart, fastest, impact or deadline (overrides strategy)")
		_ = cmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
	}
	return cmd
}

func init() {
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(suggestCmd)
}

func runTrigger(cmd *cobra.Command, trigger dispatch.Trigger, opts *triggerOptions, args []string) error {
	raw, path, err := readInput(cmd.InOrStdin(), opts.tasks, args)
	if err != nil {
		return err
	}
	if opts.watch && path == "" {
		return NewCLIError("--watch needs a task file", "Pass the path of the file to watch instead of stdin or --tasks", nil)
	}

	services, err := loadServices(cmd)
	if err != nil {
		return err
	}
	d, err := services.NewDispatcher(opts.format)
	if err != nil {
		return NewCLIError("unsupported output format", "Use one of: "+formatNames(), err)
	}

	strategy := opts.strategy
	if strategy == "" {
		strategy = services.Config.Strategy
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &syncWriter{w: cmd.OutOrStdout()}

	if err := d.Dispatch(ctx, trigger, raw, strategy); err != nil {
		return MapError(err)
	}
	if err := out.writeRegion(d.Region()); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}
	return watchAndRerun(ctx, cmd.ErrOrStderr(), out, d, trigger, path, strategy, opts.debounce)
}

func watchAndRerun(ctx context.Context, errOut io.Writer, out *syncWriter, d *dispatch.Dispatcher, trigger dispatch.Trigger, path, strategy string, debounce time.Duration) error {
	// Re-runs hold gate for reading; shutdown takes it for writing so that
	// nothing is printed once watchAndRerun returns.
	var (
		gate    sync.RWMutex
		stopped bool
	)
	defer func() {
		gate.Lock()
		stopped = true
		gate.Unlock()
	}()

	w, err := watch.NewFileWatcher(path, debounce, func(ev watch.ChangeEvent) {
		gate.RLock()
		defer gate.RUnlock()
		if stopped {
			return
		}

		data, err := os.ReadFile(ev.Path) // #nosec G304 -- user-selected task file
		if err != nil {
			fmt.Fprintf(errOut, "Error: read %s: %v\n", ev.Path, err)
			return
		}
		err = d.Dispatch(ctx, trigger, string(data), strategy)
		switch {
		case err == nil:
			out.printf("\n--- %s changed at %s ---\n", ev.Path, time.Now().Format("15:04:05"))
			_ = out.writeRegion(d.Region())
		case errors.Is(err, dispatch.ErrSuperseded), ctx.Err() != nil:
		default:
			fmt.Fprintf(errOut, "Error: %v\n", MapError(err))
		}
	}, logger)
	if err != nil {
		return NewCLIError("cannot watch task file", "Check that the directory of the file exists", err)
	}

	fmt.Fprintf(errOut, "Watching %s for changes (Ctrl+C to stop)\n", w.Path())
	logger.Debug("watching task file", zap.String("path", w.Path()), zap.Duration("debounce", debounce))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// readInput returns the raw task text and, when it came from a file, the
// file path.
func readInput(stdin io.Reader, inline string, args []string) (string, string, error) {
	if inline != "" {
		if len(args) > 0 {
			return "", "", NewCLIError("both a task file and --tasks were given", "Use one input source", nil)
		}
		return inline, "", nil
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", NewCLIError("cannot read tasks from stdin", "", err)
		}
		return string(data), "", nil
	}

	path := args[0]
	data, err := os.ReadFile(path) // #nosec G304 -- user-selected task file
	if err != nil {
		return "", "", NewCLIError("cannot read task file", "Check the path, or pass '-' to read from stdin", err)
	}
	return string(data), path, nil
}

// syncWriter serializes output from watch callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, a...)
}

func (s *syncWriter) writeRegion(region *render.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := region.Content()
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	_, err := io.WriteString(s.w, content)
	return err
}

func formatNames() string {
	names := make([]string, 0, len(render.AllFormats()))
	for _, f := range render.AllFormats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(render.AllFormats()))
	for _, f := range render.AllFormats() {
		names = append(names, string(f))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeStrategies(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	known := scoring.KnownStrategies()
	out := make([]string, 0, len(known))
	for _, s := range known {
		out = append(out, string(s)+"\t"+s.Label())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
