package deploy

import "github.com/arthur-debert/sdeploy/pkg/config"

// Observer receives progress notifications for operator-facing output.
// Calls happen on the deploying goroutine, in pipeline order.
type Observer interface {
	RuleStarted(index int, rule config.CopyRule)
	Unzipping(path string)
	Patching(filter string, rules []config.ReplaceRule)
	BackupSaved(path string)
	BackupSkipped(folder string)
	Publishing(files int, destination string)
}

type nopObserver struct{}

func (nopObserver) RuleStarted(int, config.CopyRule) {}
func (nopObserver) Unzipping(string) {}
func (nopObserver) Patching(string, []config.ReplaceRule) {}
func (nopObserver) BackupSaved(string) {}
func (nopObserver) BackupSkipped(string) {}
func (nopObserver) Publishing(int, string) {}
