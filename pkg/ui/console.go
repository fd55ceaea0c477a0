package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/sdeploy/pkg/config"
	"github.com/arthur-debert/sdeploy/pkg/deploy"
	"github.com/arthur-debert/sdeploy/pkg/ui/styles"
	"github.com/dustin/go-humanize"
)

// Console prints deploy progress the way operators read it:
//
//	Deploying /work/deploy.json
//	build =>> out/site
//	  Patching txt,json
//	    VERSION -> 1.2.3
//	  Backup saved as /backups/site_2024_03_05_140709.zip
//	  Copying 4 files to /work/out/site
//	Deployed /work/deploy.json in 1s
//
// It implements deploy.Observer.
type Console struct {
	w      io.Writer
	styled bool
}

var _ deploy.Observer = (*Console)(nil)

// NewConsole writes to w. FormatAuto enables styling only when w is a
// color-capable terminal.
func NewConsole(w io.Writer, format Format) *Console {
	if format == FormatAuto {
		format = FormatText
		if f, ok := w.(*os.File); ok {
			format = DetectFormat(f)
		}
	}
	return &Console{w: w, styled: format == FormatTerminal}
}

func (c *Console) style(name, s string) string {
	if !c.styled {
		return s
	}
	return styles.GetStyle(name).Render(s)
}

func (c *Console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Deploying announces the start of a run
func (c *Console) Deploying(configPath string, dryRun bool) {
	c.printf("%s %s\n", c.style("Header", "Deploying"), c.style("FilePath", configPath))
	if dryRun {
		c.printf("%s\n", c.style("DryRunBanner", "DRY RUN: destinations will not be modified"))
	}
}

// RuleStarted prints the "source =>> destination" header of a copy rule
func (c *Console) RuleStarted(_ int, rule config.CopyRule) {
	c.printf("%s %s %s\n", c.style("Rule", rule.Source), c.style("Arrow", "=>>"), c.style("Rule", rule.Destination))
}

// Unzipping notes a zip source being extracted
func (c *Console) Unzipping(path string) {
	c.printf("  %s %s\n", c.style("Step", "Unzip"), c.style("FilePath", path))
}

// Patching lists the filter and every find/replace pair
func (c *Console) Patching(filter string, rules []config.ReplaceRule) {
	c.printf("  %s %s\n", c.style("Step", "Patching"), filter)
	for _, rule := range rules {
		c.printf("    %s %s %s\n", rule.Find, c.style("Arrow", "->"), rule.ReplaceWith)
	}
}

// BackupSaved prints where the previous destination was archived
func (c *Console) BackupSaved(path string) {
	c.printf("  %s %s\n", c.style("Step", "Backup saved as"), c.style("FilePath", path))
}

// BackupSkipped warns that the configured backup folder is missing
func (c *Console) BackupSkipped(folder string) {
	c.Warn(fmt.Sprintf("  Backup folder %s does not exist, skipping backup", folder))
}

// Publishing announces the copy into the destination
func (c *Console) Publishing(files int, destination string) {
	c.printf("  %s %d files to %s\n", c.style("Step", "Copying"), files, c.style("FilePath", destination))
}

// Deployed summarizes a finished run
func (c *Console) Deployed(report *deploy.Report) {
	if report.DryRun {
		c.printf("%s %s in %ds\n", c.style("Success", "Dry run of"), report.ConfigPath, report.Seconds())
		return
	}
	c.printf("%s %s in %ds %s\n",
		c.style("Success", "Deployed"),
		report.ConfigPath,
		report.Seconds(),
		c.style("Muted", fmt.Sprintf("(%d files, %s)", report.Files(), humanize.Bytes(uint64(report.Bytes())))),
	)
}

// Failed reports an error with the "failed:" prefix
func (c *Console) Failed(err error) {
	c.printf("%s%s\n", c.style("Error", "failed:"), err.Error())
}

// Warn prints a warning line
func (c *Console) Warn(msg string) {
	c.printf("%s\n", c.style("Warning", msg))
}

// Watching lists the paths a watcher follows
func (c *Console) Watching(paths []string) {
	c.printf("%s %d paths (Ctrl-C to stop)\n", c.style("Header", "Watching"), len(paths))
	for _, p := range paths {
		c.printf("  %s\n", c.style("FilePath", p))
	}
}

// Changed announces a redeploy triggered by a change to path
func (c *Console) Changed(path string) {
	c.printf("\n%s %s\n", c.style("Muted", "Changed"), c.style("FilePath", path))
}
