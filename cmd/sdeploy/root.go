package sdeploy

import (
	"fmt"
	"os"

	"github.com/arthur-debert/sdeploy/internal/version"
	"github.com/arthur-debert/sdeploy/pkg/config"
	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/logging"
	"github.com/arthur-debert/sdeploy/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ScratchEnv overrides the default scratch folder
const ScratchEnv = "SDEPLOY_SCRATCH"

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity int
	dryRun    bool
	scratch   string
	color     string
	format    ui.Format
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "sdeploy [config file]",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf(MsgErrTooManyArgs, len(args))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")

			format, err := ui.ParseFormat(opts.color)
			if err != nil {
				return errors.Wrap(err, errors.ErrInvalidInput, "invalid --color")
			}
			opts.format = format
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runUsage(cmd, opts)
			}
			return runDeploy(cmd, opts, args[0])
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&opts.scratch, "scratch", os.Getenv(ScratchEnv), MsgFlagScratch)
	rootCmd.PersistentFlags().StringVar(&opts.color, "color", ui.FormatAuto.String(), MsgFlagColor)
	_ = rootCmd.RegisterFlagCompletionFunc("color", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(ui.Formats))
		for _, f := range ui.Formats {
			names = append(names, f.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newDeployCmd(opts))
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// runUsage is the bare invocation: write sample.json and explain usage
func runUsage(cmd *cobra.Command, opts *globalOptions) error {
	console := newConsole(cmd, opts)
	console.PrintMarkdown(MsgUsage)

	path, err := config.WriteSample(newFs(), config.SampleFileName+config.FormatJSON.Ext(), config.FormatJSON)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), MsgSampleWritten, path)
	return nil
}
