package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/config"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/feed"
	"github.com/rileyhilliard/livecharts/internal/ui"
	"github.com/rileyhilliard/livecharts/pkg/sshutil"
)

var (
	initHostFlag    string
	initRuntimeFlag string
	initForce       bool
	initYes         bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .livecharts.yaml config",
	Long: `Create a .livecharts.yaml in the current directory.

Asks where stats come from (this machine or an SSH host from your
~/.ssh/config), which runtime to run, and what to chart. Without a terminal,
or with --yes, defaults are written straight away.

Examples:
  livecharts init
  livecharts init --host box
  livecharts init --yes --runtime podman --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			Dir:            ".",
			Host:           initHostFlag,
			Runtime:        initRuntimeFlag,
			Overwrite:      initForce,
			NonInteractive: initYes || !isTerminal(os.Stdin),
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initHostFlag, "host", "", "SSH host to stream stats from")
	initCmd.Flags().StringVar(&initRuntimeFlag, "runtime", "", "docker-compatible CLI (default docker)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "skip prompts and write defaults")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Dir            string // Directory to write the config in
	Host           string // SSH host; empty means local unless picked
	Runtime        string // Runtime CLI; empty means docker
	Overwrite      bool   // Overwrite an existing config without asking
	NonInteractive bool   // Skip prompts and the connection test
	Out            io.Writer
}

// initAnswers are the choices init turns into a config.
type initAnswers struct {
	Kind    string
	Host    string
	Runtime string
	Mode    string
	Devices []string
}

// Init creates a new .livecharts.yaml.
func Init(opts InitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	path := filepath.Join(opts.Dir, config.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}
		overwrite, err := confirm(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName))
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(opts.Out, "Cancelled.")
			return nil
		}
	}

	answers := defaultAnswers(opts)
	if !opts.NonInteractive {
		ok, err := askAnswers(&answers)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(opts.Out, "Cancelled.")
			return nil
		}
		if answers.Kind == config.SourceSSH {
			if err := checkRemote(answers); err != nil {
				return err
			}
		}
	}

	cfg, err := buildConfig(answers)
	if err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "%s Created %s\n\n", ui.SymbolComplete, path)
	fmt.Fprintln(opts.Out, "Next steps:")
	fmt.Fprintln(opts.Out, "  livecharts watch      - open the dashboard")
	fmt.Fprintln(opts.Out, "  livecharts snapshot   - print a quick table")
	return nil
}

func defaultAnswers(opts InitOptions) initAnswers {
	d := config.DefaultConfig()
	a := initAnswers{
		Kind:    config.SourceLocal,
		Host:    strings.TrimSpace(opts.Host),
		Runtime: strings.TrimSpace(opts.Runtime),
		Mode:    d.Mode,
		Devices: d.Devices,
	}
	if a.Host != "" {
		a.Kind = config.SourceSSH
	}
	if a.Runtime == "" {
		a.Runtime = d.Source.Runtime
	}
	return a
}

// buildConfig turns answers into a validated config.
func buildConfig(a initAnswers) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Source.Kind = a.Kind
	cfg.Source.Runtime = a.Runtime
	if a.Kind == config.SourceSSH {
		cfg.Source.Host = a.Host
	}
	cfg.Mode = a.Mode
	cfg.Devices = a.Devices

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// askAnswers runs the prompts. It reports false when the user backs out of
// the host picker.
func askAnswers(a *initAnswers) (bool, error) {
	if a.Host == "" {
		kindForm := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where do the containers run?").
				Options(
					huh.NewOption("On this machine", config.SourceLocal),
					huh.NewOption("On an SSH host", config.SourceSSH),
				).
				Value(&a.Kind),
		))
		if err := kindForm.Run(); err != nil {
			return false, inputError(err)
		}
	}

	if a.Kind == config.SourceSSH && a.Host == "" {
		ok, err := pickHost(a)
		if err != nil || !ok {
			return ok, err
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Runtime").
				Description("The docker-compatible CLI to run (docker, podman, nerdctl)").
				Value(&a.Runtime).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t'\"") {
						return fmt.Errorf("enter a single command, like docker")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Chart mode").
				Options(
					huh.NewOption("Overview: one total per device", charts.Overview.String()),
					huh.NewOption("Combine: every container on one chart per device", charts.Combine.String()),
					huh.NewOption("Split: one chart per container and device", charts.Split.String()),
				).
				Value(&a.Mode),
			huh.NewMultiSelect[string]().
				Title("Devices").
				Options(
					huh.NewOption("CPU", "cpu").Selected(true),
					huh.NewOption("Memory", "memory").Selected(true),
					huh.NewOption("Disk I/O", "disk").Selected(true),
					huh.NewOption("Network I/O", "network").Selected(true),
				).
				Value(&a.Devices).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("pick at least one device")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return false, inputError(err)
	}
	return true, nil
}

// pickHost chooses an SSH host from ~/.ssh/config, or asks for one.
func pickHost(a *initAnswers) (bool, error) {
	// Without a readable ssh config the picker goes straight to manual entry.
	hosts, _ := sshutil.ListHosts()

	host, result, err := ui.PickSSHHost(hosts)
	if err != nil {
		return false, err
	}
	switch result {
	case ui.PickCancelled:
		return false, nil
	case ui.PickSelected:
		a.Host = host.Alias
		return true, nil
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("SSH host").
			Description("Hostname, user@host, or SSH config alias").
			Placeholder("box or user@192.168.1.100").
			Value(&a.Host).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("SSH host is required")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return false, inputError(err)
	}
	a.Host = strings.TrimSpace(a.Host)
	return true, nil
}

// checkRemote connects to the host and lists containers with the runtime.
// On failure the user may save the config anyway.
func checkRemote(a initAnswers) error {
	spinner := ui.NewSpinner("Checking " + a.Runtime + " on " + a.Host)
	spinner.Start()

	err := probeRemote(a.Host, a.Runtime)
	if err == nil {
		spinner.Success()
		return nil
	}
	spinner.Fail()
	fmt.Fprintf(os.Stderr, "\n%s %v\n", ui.SymbolFail, strings.TrimSpace(err.Error()))

	save, formErr := confirm("Save the config anyway? (You can fix the host later)")
	if formErr != nil || !save {
		return err
	}
	return nil
}

func probeRemote(host, runtime string) error {
	client, err := dialSSH(host, 10*time.Second)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = feed.NewRemote(client, runtime).List(ctx)
	return err
}

func confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(title).Value(&ok)))
	if err := form.Run(); err != nil {
		return false, inputError(err)
	}
	return ok, nil
}

func inputError(err error) error {
	return errors.WrapWithCode(err, errors.ErrConfig,
		"Failed to get user input",
		"Run with --yes to skip the prompts")
}
