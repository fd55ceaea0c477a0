package sdeploy

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arthur-debert/sdeploy/internal/version"
	"github.com/arthur-debert/sdeploy/pkg/config"
	"github.com/arthur-debert/sdeploy/pkg/deploy"
	"github.com/arthur-debert/sdeploy/pkg/filesystem"
	"github.com/arthur-debert/sdeploy/pkg/logging"
	"github.com/arthur-debert/sdeploy/pkg/ui"
	"github.com/arthur-debert/sdeploy/pkg/watch"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newConsole(cmd *cobra.Command, opts *globalOptions) *ui.Console {
	return ui.NewConsole(cmd.OutOrStdout(), opts.format)
}

func newFs() afero.Fs {
	return filesystem.NewOS()
}

func newDeployer(opts *globalOptions, observer deploy.Observer) *deploy.Deployer {
	return deploy.New(deploy.Options{
		Fs:         newFs(),
		ScratchDir: opts.scratch,
		DryRun:     opts.dryRun,
		Observer:   observer,
	})
}

func newDeployCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "deploy <config file>",
		Short:   MsgDeployShort,
		Long:    MsgDeployLong,
		Example: MsgDeployExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, opts, args[0])
		},
	}
}

func runDeploy(cmd *cobra.Command, opts *globalOptions, path string) error {
	logger := logging.GetLogger("cmd.deploy")
	logger.Info().
		Str("config", path).
		Bool("dryRun", opts.dryRun).
		Msg("Starting deploy")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	console := newConsole(cmd, opts)
	console.Deploying(cfg.Path, opts.dryRun)

	report, err := newDeployer(opts, console).Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	console.Deployed(report)
	return nil
}

func newSampleCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: MsgSampleShort,
		Long:  MsgSampleLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFormat(format)
			if err != nil {
				return err
			}
			if output == "" {
				output = config.SampleFileName + f.Ext()
			} else if !cmd.Flags().Changed("format") {
				f = config.FormatFromPath(output)
			}

			path, err := config.WriteSample(newFs(), output, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgSampleWritten, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatJSON), MsgFlagFormat)
	cmd.Flags().StringVarP(&output, "output", "o", "", MsgFlagOutput)
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(config.Formats))
		for _, f := range config.Formats {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <config file>",
		Short: MsgWatchShort,
		Long:  MsgWatchLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, args[0], debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, MsgFlagDebounce)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *globalOptions, path string, debounce time.Duration) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	console := newConsole(cmd, opts)
	deployer := newDeployer(opts, console)

	// last is the most recently loaded config. The watcher calls Run,
	// Targets and Ignore from a single goroutine.
	var (
		last    *config.Config
		watched string
	)

	w, err := watch.New(watch.Options{
		Debounce: debounce,
		Run: func(ctx context.Context) error {
			cfg, err := config.Load(absPath)
			if err != nil {
				return err
			}
			last = cfg
			console.Deploying(cfg.Path, opts.dryRun)
			report, err := deployer.Run(ctx, cfg)
			if err != nil {
				return err
			}
			console.Deployed(report)
			return nil
		},
		Targets: func() ([]string, error) {
			targets := watchTargets(absPath, last)
			if key := fmt.Sprint(targets); key != watched {
				watched = key
				console.Watching(targets)
			}
			return targets, nil
		},
		Ignore: func() []string {
			return watchIgnored(deployer, last)
		},
		OnChange: console.Changed,
		OnError:  console.Failed,
	})
	if err != nil {
		return err
	}

	log.Info().Str("config", absPath).Dur("debounce", debounce).Msg("Watching")
	return w.Run(cmd.Context())
}

// watchTargets is the config file plus every rule source
func watchTargets(configPath string, cfg *config.Config) []string {
	targets := []string{configPath}
	if cfg == nil {
		return targets
	}
	for _, rule := range cfg.Copy {
		targets = append(targets, cfg.Resolve(rule.Source))
	}
	return targets
}

// watchIgnored lists the paths a deploy writes to
func watchIgnored(deployer *deploy.Deployer, cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	ignored := []string{deployer.ScratchDir(cfg)}
	for _, rule := range cfg.Copy {
		ignored = append(ignored, cfg.Resolve(rule.Destination))
	}
	if cfg.BackupFolder != "" {
		ignored = append(ignored, cfg.Resolve(cfg.BackupFolder))
	}
	return ignored
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
