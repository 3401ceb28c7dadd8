package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/livecharts/internal/config"
	"github.com/rileyhilliard/livecharts/internal/dashboard"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/palette"
	"github.com/rileyhilliard/livecharts/internal/pipeline"
	"github.com/rileyhilliard/livecharts/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live charts dashboard",
	Long: `Stream container stats and chart them live.

Keyboard shortcuts:
  up/k, down/j  Move through the container list
  space/enter   Select or deselect a container
  a / n         Select all / none
  m             Cycle mode (overview, combine, split)
  f             Freeze or resume the charts
  c             Color series by container
  s             Shuffle colors
  + / -         Faster / slower refresh
  r             Resync the container list
  esc           Dismiss notices
  q / Ctrl+C    Quit

Examples:
  livecharts watch
  livecharts watch --mode split --devices cpu,memory
  livecharts watch --host box --filter '^web'
  livecharts watch --log-file /tmp/livecharts.log --metrics-addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd)
	},
}

func init() {
	AddConfigFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func watchCommand(cmd *cobra.Command) error {
	r, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, logFile, err := openLog(r.LogFile, r.LogLevel, true)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if path != "" {
		log.Info("using config %s", path)
	}

	variant, err := palette.ParseVariant(r.Palette)
	if err != nil {
		return err
	}

	src, err := connect(r, log)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg, metrics := newMetrics()
	if r.MetricsAddr != "" {
		if _, err := serveMetrics(ctx, r.MetricsAddr, reg, log); err != nil {
			return err
		}
	}

	frames := dashboard.NewFrames()
	p := pipeline.New(pipelineOptions(r, src, variant, frames.Push, log, metrics))

	runErr := make(chan error, 1)
	go func() {
		err := p.Run(ctx)
		frames.Close()
		runErr <- err
	}()

	model := dashboard.NewModel(frames.C(), p, src.Name, log)
	_, teaErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	cancel()
	if err := <-runErr; err != nil {
		return err
	}
	if teaErr != nil {
		return errors.WrapWithCode(teaErr, errors.ErrConfig,
			"The dashboard couldn't start",
			"Check that the terminal supports full-screen programs, or use 'livecharts snapshot'")
	}
	return nil
}

// connect opens the source behind a spinner, since an SSH dial can take a
// while.
func connect(r *config.Resolved, log logger.Logger) (*Source, error) {
	if r.Source.Kind != config.SourceSSH {
		return openSource(r, log)
	}
	spinner := ui.NewSpinner("Connecting to " + r.Source.Host)
	spinner.Start()
	src, err := openSource(r, log)
	if err != nil {
		spinner.Fail()
		return nil, err
	}
	spinner.Success()
	return src, nil
}

func pipelineOptions(r *config.Resolved, src *Source, variant palette.Variant, sink func(pipeline.Frame), log logger.Logger, metrics *pipeline.Metrics) pipeline.Options {
	return pipeline.Options{
		Enumerator:     src.Enumerator,
		Streamer:       src.Streamer,
		Sink:           sink,
		Devices:        r.Devices,
		Mode:           r.Mode,
		Filter:         r.Filter,
		Colorize:       r.Colorize,
		Interval:       r.Interval,
		WindowSize:     r.WindowSize,
		MaxCharts:      r.MaxCharts,
		MaxFailedReads: r.MaxFailedReads,
		Palette:        variant,
		Logger:         log,
		Metrics:        metrics,
	}
}
