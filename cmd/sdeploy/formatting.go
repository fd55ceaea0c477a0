package sdeploy

import (
	"os"
	"strings"
	"text/template"

	"github.com/arthur-debert/sdeploy/pkg/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// stdoutStyled reports whether help output on stdout may carry styling
func stdoutStyled() bool {
	return ui.DetectFormat(os.Stdout) == ui.FormatTerminal
}

// formatBold returns s in bold on styled terminals
func formatBold(s string) string {
	if !stdoutStyled() {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// formatBoldUpper returns s in uppercase, bold on styled terminals
func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds the formatting functions used by MsgUsageTemplate
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}
