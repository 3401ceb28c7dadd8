package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/livecharts/internal/config"
	"github.com/rileyhilliard/livecharts/internal/doctor"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/ui"
)

var (
	doctorJSON    bool
	doctorTimeout time.Duration
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the config, SSH setup and container runtime",
	Long: `Run diagnostics on everything watch depends on: the config file, the
SSH keys and agent for remote hosts, the runtime CLI, listing containers and
reading the first batch of stats.

Runtime checks only run when the config and SSH checks pass.

Examples:
  livecharts doctor
  livecharts doctor --host box
  livecharts doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd)
	},
}

func init() {
	AddConfigFlags(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 15*time.Second, "time allowed for each runtime check")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput is the --json payload.
type DoctorOutput struct {
	Categories []doctor.Category `json:"categories"`
	Summary    SummaryOutput     `json:"summary"`
}

// SummaryOutput counts the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Skip     int  `json:"skip"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, loadErr := config.LoadWithFlags(configFlag, cmd.Flags())
	home, _ := os.UserHomeDir()

	results := runDoctor(ctx, cfg, loadErr, home, doctorTimeout)

	out := cmd.OutOrStdout()
	if doctorJSON {
		if err := writeDoctorJSON(out, results); err != nil {
			return err
		}
	} else {
		writeDoctorText(out, results)
	}

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

// runDoctor runs the local checks in parallel, then, when none failed,
// connects to the source and runs the runtime checks.
func runDoctor(ctx context.Context, cfg *config.Config, loadErr error, home string, timeout time.Duration) []doctor.CheckResult {
	src := config.DefaultConfig().Source
	if cfg != nil {
		src = cfg.Source
	}
	remote := src.Kind == config.SourceSSH

	checks := []doctor.Check{
		&doctor.ConfigFileCheck{ConfigPath: configFlag},
		&doctor.ConfigSchemaCheck{Config: cfg, LoadErr: loadErr},
		&doctor.RuntimeBinaryCheck{Runtime: src.Runtime, Remote: remote},
	}
	checks = append(checks, doctor.NewSSHChecks(remote, home)...)
	results := doctor.RunAllParallel(ctx, checks)

	if doctor.HasFailures(results) {
		return append(results, skipped("Fix the failures above first")...)
	}

	r, err := config.Resolve(cfg)
	if err != nil {
		return append(results, skipped("Config is invalid")...)
	}
	source, err := openSource(r, logger.Noop())
	if err != nil {
		return append(results, connectFailure(r, err))
	}
	defer source.Close()

	return append(results, doctor.RunAll(ctx, sourceChecks(source, timeout))...)
}

func sourceChecks(src *Source, timeout time.Duration) []doctor.Check {
	return []doctor.Check{
		&doctor.RuntimeListCheck{Enumerator: src.Enumerator, Timeout: timeout},
		&doctor.StatsStreamCheck{Streamer: src.Streamer, Timeout: timeout},
	}
}

// skipped reports the runtime checks as not run.
func skipped(reason string) []doctor.CheckResult {
	return []doctor.CheckResult{
		{Name: "runtime_list", Category: "RUNTIME", Status: doctor.StatusSkip, Message: "Skipped: " + reason},
		{Name: "stats_stream", Category: "RUNTIME", Status: doctor.StatusSkip, Message: "Skipped: " + reason},
	}
}

func connectFailure(r *config.Resolved, err error) doctor.CheckResult {
	result := doctor.CheckResult{
		Name:     "connect",
		Category: "RUNTIME",
		Status:   doctor.StatusFail,
		Message:  "Couldn't open " + r.Source.Kind + " source",
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		result.Message += ": " + e.Message
		result.Suggestion = e.Suggestion
	} else {
		result.Message += ": " + err.Error()
	}
	return result
}

func writeDoctorJSON(w io.Writer, results []doctor.CheckResult) error {
	counts := doctor.CountByStatus(results)
	output := DoctorOutput{
		Categories: doctor.GroupByCategory(results),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			Skip:     counts[doctor.StatusSkip],
			AllClear: !doctor.HasIssues(results),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func writeDoctorText(w io.Writer, results []doctor.CheckResult) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("livecharts diagnostic report"))
	fmt.Fprintln(w)

	for _, cat := range doctor.GroupByCategory(results) {
		fmt.Fprintln(w, headerStyle.Render(cat.Name))
		for _, r := range cat.Results {
			symbol, style := ui.SymbolComplete, successStyle
			switch r.Status {
			case doctor.StatusWarn:
				style = warnStyle
			case doctor.StatusFail:
				symbol, style = ui.SymbolFail, errorStyle
			case doctor.StatusSkip:
				symbol, style = ui.SymbolSkipped, mutedStyle
			}
			fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), r.Message)

			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				for _, line := range strings.Split(r.Suggestion, "\n") {
					fmt.Fprintf(w, "    %s\n", mutedStyle.Render(line))
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render(ui.SymbolComplete), doctor.Summary(results))
	}
}
