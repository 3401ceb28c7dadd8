package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/palette"
	"github.com/rileyhilliard/livecharts/internal/pipeline"
	"github.com/rileyhilliard/livecharts/internal/ui"
)

var (
	snapshotSamples int
	snapshotTimeout time.Duration
	snapshotJSON    bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect a few samples and print them as a table",
	Long: `Run the stats pipeline until the window holds enough samples, then
print one row per series with its latest, lowest, highest and mean value.

Examples:
  livecharts snapshot
  livecharts snapshot --samples 5 --mode split
  livecharts snapshot --host box --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotCommand(cmd)
	},
}

func init() {
	AddConfigFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapshotSamples, "samples", 3, "snapshots to collect before printing")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 30*time.Second, "give up after this long")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(snapshotCmd)
}

// SeriesSummary is one series of a chart over the collected window.
type SeriesSummary struct {
	Chart  string  `json:"chart"`
	Series string  `json:"series"`
	Flow   string  `json:"flow"`
	Latest float64 `json:"latest"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Unit   string  `json:"unit"`
}

// SnapshotOutput is the --json payload.
type SnapshotOutput struct {
	Timestamp  string          `json:"timestamp"`
	Mode       string          `json:"mode"`
	Containers int             `json:"containers"`
	Samples    int             `json:"samples"`
	Series     []SeriesSummary `json:"series"`
}

func snapshotCommand(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	err := runSnapshot(cmd, out)
	if err != nil && snapshotJSON {
		_ = WriteJSONFromError(out, err)
		return errors.NewExitError(1)
	}
	return err
}

func runSnapshot(cmd *cobra.Command, out io.Writer) error {
	if snapshotSamples < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--samples needs to be at least 1 (got %d)", snapshotSamples),
			"Try --samples 3")
	}

	r, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, logFile, err := openLog(r.LogFile, r.LogLevel, false)
	if err != nil {
		return err
	}
	defer logFile.Close()

	if !isTerminal(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	variant, err := palette.ParseVariant(r.Palette)
	if err != nil {
		return err
	}

	src, err := openSource(r, log)
	if err != nil {
		return err
	}
	defer src.Close()

	if r.WindowSize < snapshotSamples {
		r.WindowSize = snapshotSamples
	}

	spinner := ui.NewSpinner(fmt.Sprintf("Collecting %d samples from %s", snapshotSamples, src.Name))
	if !isTerminal(os.Stderr) || snapshotJSON {
		spinner.SetOutput(io.Discard)
	}
	spinner.Start()

	ctx, cancel := context.WithTimeout(cmd.Context(), snapshotTimeout)
	defer cancel()

	_, metrics := newMetrics()
	frame, err := collectFrame(ctx, func(sink func(pipeline.Frame)) runner {
		return pipeline.New(pipelineOptions(r, src, variant, sink, log, metrics))
	}, snapshotSamples)
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()

	summary := summarize(frame)
	if snapshotJSON {
		return WriteJSONSuccess(out, summary)
	}
	printSnapshot(out, summary, frame)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// runner is the part of a Pipeline collectFrame drives.
type runner interface {
	Run(ctx context.Context) error
}

// collectFrame runs a pipeline until a frame's window holds samples
// snapshots, then stops it. If ctx ends first, the newest frame with data is
// returned, or an error when there is none.
func collectFrame(ctx context.Context, build func(sink func(pipeline.Frame)) runner, samples int) (pipeline.Frame, error) {
	latest := make(chan pipeline.Frame, 1)
	sink := func(f pipeline.Frame) {
		select {
		case <-latest:
		default:
		}
		latest <- f
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := build(sink)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	var best pipeline.Frame
	for {
		select {
		case f := <-latest:
			if f.WindowLen >= best.WindowLen {
				best = f
			}
			if f.WindowLen >= samples {
				cancel()
				<-done
				return f, nil
			}

		case err := <-done:
			if err != nil {
				return best, err
			}
			return best, errors.New(errors.ErrFeed, "The stats pipeline stopped early", "")

		case <-ctx.Done():
			cancel()
			<-done
			if best.WindowLen > 0 {
				return best, nil
			}
			return best, errors.New(errors.ErrFeed,
				"No container stats arrived in time",
				"Check that containers are running ('docker ps') or raise --timeout")
		}
	}
}

// summarize reduces every series of the frame to its statistics. Write
// series report positive magnitudes.
func summarize(f pipeline.Frame) SnapshotOutput {
	out := SnapshotOutput{
		Timestamp:  f.Timestamp,
		Mode:       f.Mode.String(),
		Containers: len(f.Containers),
		Samples:    f.WindowLen,
		Series:     []SeriesSummary{},
	}
	for _, ds := range f.Datasets {
		for _, s := range ds.Series() {
			values := ds.Values(s)
			if len(values) == 0 {
				continue
			}
			sign := 1.0
			if s.Flow == charts.FlowWrite {
				sign = -1
			}
			sum := SeriesSummary{
				Chart:  ds.Title(),
				Series: s.Label,
				Flow:   s.Flow.String(),
				Latest: sign * values[len(values)-1],
				Min:    sign * values[0],
				Max:    sign * values[0],
				Unit:   ds.Device.Unit,
			}
			total := 0.0
			for _, v := range values {
				v *= sign
				sum.Min = min(sum.Min, v)
				sum.Max = max(sum.Max, v)
				total += v
			}
			sum.Mean = total / float64(len(values))
			out.Series = append(out.Series, sum)
		}
	}
	return out
}

func printSnapshot(w io.Writer, s SnapshotOutput, f pipeline.Frame) {
	fmt.Fprintf(w, "%s  mode %s  %d containers  %d samples\n\n", s.Timestamp, s.Mode, s.Containers, s.Samples)
	if len(s.Series) == 0 {
		fmt.Fprintln(w, "No charts: no containers are selected or none report the chosen devices.")
		return
	}

	rows := make([][]string, 0, len(s.Series))
	for _, sum := range s.Series {
		label := sum.Series
		switch sum.Flow {
		case charts.FlowRead.String():
			label += " (read)"
		case charts.FlowWrite.String():
			label += " (write)"
		}
		rows = append(rows, []string{
			sum.Chart,
			label,
			charts.FormatValue(sum.Latest),
			charts.FormatValue(sum.Min),
			charts.FormatValue(sum.Max),
			charts.FormatValue(sum.Mean),
			sum.Unit,
		})
	}
	titles := []string{"CHART", "SERIES", "LATEST", "MIN", "MAX", "MEAN", "UNIT"}
	fmt.Fprintln(w, ui.RenderTable(ui.ColumnWidths(titles, rows), rows))

	if f.LimitReached {
		fmt.Fprintf(w, "\n%s\n", f.NoticeText())
	}
}
