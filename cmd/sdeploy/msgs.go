package sdeploy

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Deploy build artifacts with text replacement and zip backups"
	MsgDeployShort     = "Run every copy rule of a config file"
	MsgSampleShort     = "Write a sample config file"
	MsgWatchShort      = "Redeploy whenever the config or a source changes"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgSampleWritten = "Sample config:%s\n"
	MsgVersionFormat = "sdeploy version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrTooManyArgs = "expected at most one config file, got %d arguments"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun   = "Stage and patch files without touching destinations or backups"
	MsgFlagScratch  = "Scratch folder for staging (default <config dir>/temp, env SDEPLOY_SCRATCH)"
	MsgFlagColor    = "Output styling: auto, term or text"
	MsgFlagFormat   = "Sample format: json, toml or yaml"
	MsgFlagOutput   = "Sample file to write (default sample.<format>)"
	MsgFlagDebounce = "Quiet period before a change triggers a redeploy"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/deploy-long.txt
	msgDeployLongRaw string
	MsgDeployLong    = strings.TrimSpace(msgDeployLongRaw)

	//go:embed msgs/deploy-example.txt
	msgDeployExampleRaw string
	MsgDeployExample    = strings.TrimRight(msgDeployExampleRaw, "\n")

	//go:embed msgs/sample-long.txt
	msgSampleLongRaw string
	MsgSampleLong    = strings.TrimSpace(msgSampleLongRaw)

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	MsgUsageTemplate string

	// MsgUsage is markdown, rendered with glamour on terminals
	//go:embed msgs/usage.md
	MsgUsage string
)
