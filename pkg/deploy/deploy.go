package deploy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/sdeploy/pkg/archive"
	"github.com/arthur-debert/sdeploy/pkg/config"
	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/filesystem"
	"github.com/arthur-debert/sdeploy/pkg/logging"
	"github.com/arthur-debert/sdeploy/pkg/replace"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	// ScratchDirName is the default scratch directory, inside the config directory
	ScratchDirName = "temp"

	// BackupTimeLayout renders as yyyy_MM_dd_HHmmss
	BackupTimeLayout = "2006_01_02_150405"
)

// Options configures a Deployer. Zero values pick the defaults.
type Options struct {
	// Fs defaults to the OS filesystem
	Fs afero.Fs
	// ScratchDir defaults to <config dir>/temp
	ScratchDir string
	DryRun     bool
	// Now defaults to time.Now; it stamps backups and measures the run
	Now      func() time.Time
	Observer Observer
}

// Deployer runs configurations through the pipeline
type Deployer struct {
	fs         afero.Fs
	scratchDir string
	dryRun     bool
	now        func() time.Time
	observer   Observer
}

// New creates a Deployer
func New(opts Options) *Deployer {
	d := &Deployer{
		fs:         opts.Fs,
		scratchDir: opts.ScratchDir,
		dryRun:     opts.DryRun,
		now:        opts.Now,
		observer:   opts.Observer,
	}
	if d.fs == nil {
		d.fs = filesystem.NewOS()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.observer == nil {
		d.observer = nopObserver{}
	}
	return d
}

// ScratchDir returns the scratch directory used for cfg
func (d *Deployer) ScratchDir(cfg *config.Config) string {
	if d.scratchDir != "" {
		return cfg.Resolve(d.scratchDir)
	}
	return filepath.Join(cfg.Dir, ScratchDirName)
}

// Run deploys every copy rule of cfg in order. The returned report is never
// nil, even on error.
func (d *Deployer) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	start := d.now()
	report := &Report{
		RunID:      uuid.NewString(),
		ConfigPath: cfg.Path,
		DryRun:     d.dryRun,
		Started:    start,
	}
	defer func() { report.Elapsed = d.now().Sub(start) }()

	logger := logging.GetLogger("deploy").With().
		Str("run", report.RunID).
		Bool("dryRun", d.dryRun).
		Logger()
	logger.Info().
		Str("config", cfg.Path).
		Int("rules", len(cfg.Copy)).
		Msg("Deploy started")

	for i, rule := range cfg.Copy {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, errors.ErrCancelled, "deploy cancelled")
		}

		result, err := d.runRule(ctx, cfg, i, rule, logger)
		report.Rules = append(report.Rules, result)
		if err != nil {
			logger.Error().Err(err).Int("rule", i).Msg("Deploy failed")
			return report, err
		}
	}

	logger.Info().
		Int("files", report.Files()).
		Int64("bytes", report.Bytes()).
		Msg("Deploy finished")
	return report, nil
}

func (d *Deployer) runRule(ctx context.Context, cfg *config.Config, index int, rule config.CopyRule, parent zerolog.Logger) (result RuleResult, err error) {
	result = RuleResult{
		Index:       index,
		Source:      cfg.Resolve(rule.Source),
		Destination: cfg.Resolve(rule.Destination),
	}
	scratch := d.ScratchDir(cfg)
	logger := parent.With().
		Int("rule", index).
		Str("source", result.Source).
		Str("destination", result.Destination).
		Logger()

	d.observer.RuleStarted(index, rule)

	if err := checkOverlap(scratch, result.Source, result.Destination); err != nil {
		return result, ruleError(err, errors.ErrInvalidInput, index, "unsafe scratch directory %s", scratch)
	}

	defer func() {
		if rmErr := d.fs.RemoveAll(scratch); rmErr != nil {
			logger.Warn().Err(rmErr).Str("scratch", scratch).Msg("Failed to remove scratch directory")
		}
	}()

	// Stage
	if err := d.stage(rule, scratch, &result, logger); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrCancelled, "deploy cancelled")
	}

	// Substitute
	files, err := filesystem.ListFiles(d.fs, scratch)
	if err != nil {
		return result, ruleError(err, errors.ErrReplace, index, "list staged files in %s", scratch)
	}
	result.Staged = len(files)

	d.observer.Patching(cfg.ReplaceFilter, cfg.Replace)
	patched, err := replace.Files(d.fs, files, cfg.Filter(), cfg.ReplaceRules())
	if err != nil {
		return result, ruleError(err, errors.ErrReplace, index, "patch staged files")
	}
	result.Patched = len(patched.Changed)
	logger.Debug().
		Int("matched", patched.Matched).
		Int("patched", result.Patched).
		Msg("Substitution done")

	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrCancelled, "deploy cancelled")
	}

	if d.dryRun {
		d.reportDryRun(cfg, &result, logger)
		return result, nil
	}

	// Backup + Clear
	if filesystem.IsDir(d.fs, result.Destination) {
		backupPath, err := d.backup(cfg, result.Destination, logger)
		if err != nil {
			return result, ruleError(err, errors.ErrBackup, index, "back up %s", result.Destination)
		}
		if backupPath != "" {
			result.BackupPath = backupPath
			d.observer.BackupSaved(backupPath)
		}

		if err := filesystem.EmptyDir(d.fs, result.Destination); err != nil {
			return result, ruleError(err, errors.ErrClear, index, "clear %s", result.Destination)
		}
		result.Cleared = true
	}

	// Publish
	d.observer.Publishing(result.Staged, result.Destination)
	done := logging.LogOperationStart(logger, "publish")
	stats, err := filesystem.CopyTree(d.fs, scratch, result.Destination)
	done()
	if err != nil {
		return result, ruleError(err, errors.ErrPublish, index, "copy to %s", result.Destination)
	}
	result.Published = stats.Files
	result.Bytes = stats.Bytes

	logger.Info().
		Int("files", result.Published).
		Int64("bytes", result.Bytes).
		Str("backup", result.BackupPath).
		Msg("Rule deployed")
	return result, nil
}

func (d *Deployer) stage(rule config.CopyRule, scratch string, result *RuleResult, logger zerolog.Logger) error {
	done := logging.LogOperationStart(logger, "stage")
	defer done()

	if err := filesystem.ResetDir(d.fs, scratch); err != nil {
		return ruleError(err, errors.ErrStage, result.Index, "prepare scratch directory %s", scratch)
	}

	switch {
	case filesystem.IsDir(d.fs, result.Source):
		result.Kind = SourceDirectory
		if _, err := filesystem.CopyTree(d.fs, result.Source, scratch); err != nil {
			return ruleError(err, errors.ErrStage, result.Index, "copy %s", result.Source)
		}

	case filesystem.IsFile(d.fs, result.Source) && archive.IsArchive(result.Source):
		result.Kind = SourceZip
		d.observer.Unzipping(result.Source)
		extracted, err := archive.Extract(d.fs, result.Source, scratch, archive.ExtractOptions{FlattenSingleRoot: true})
		if err != nil {
			return ruleError(err, errors.ErrStage, result.Index, "unzip %s", result.Source)
		}
		result.HoistedRoot = extracted.Root
		if extracted.Root != "" {
			logger.Debug().Str("root", extracted.Root).Msg("Flattened single-root archive")
		}

	default:
		return errors.Newf(errors.ErrSourceNotFound, "can't find %s (%s)", rule.Source, result.Source).
			WithDetail("rule", result.Index).
			WithDetail("source", result.Source)
	}
	return nil
}

// backup zips dest into the backup folder and returns the archive path. It
// returns "" when backups are disabled or the folder does not exist.
func (d *Deployer) backup(cfg *config.Config, dest string, logger zerolog.Logger) (string, error) {
	if cfg.BackupFolder == "" {
		return "", nil
	}
	folder := cfg.Resolve(cfg.BackupFolder)
	if !filesystem.IsDir(d.fs, folder) {
		logger.Warn().Str("backupFolder", folder).Msg("Backup folder does not exist, skipping backup")
		d.observer.BackupSkipped(folder)
		return "", nil
	}

	zipPath := d.backupPath(folder, dest)
	if _, err := archive.Create(d.fs, dest, zipPath); err != nil {
		return "", err
	}
	return zipPath, nil
}

// backupPath returns <folder>/<dest name>_<timestamp>.zip, adding a counter
// when a backup with that name already exists.
func (d *Deployer) backupPath(folder, dest string) string {
	base := filepath.Base(dest) + "_" + d.now().Format(BackupTimeLayout)
	candidate := filepath.Join(folder, base+archive.Ext)
	for n := 2; ; n++ {
		if exists, err := afero.Exists(d.fs, candidate); err != nil || !exists {
			return candidate
		}
		candidate = filepath.Join(folder, fmt.Sprintf("%s_%d%s", base, n, archive.Ext))
	}
}

func (d *Deployer) reportDryRun(cfg *config.Config, result *RuleResult, logger zerolog.Logger) {
	event := logger.Info().Int("files", result.Staged)
	if filesystem.IsDir(d.fs, result.Destination) {
		event = event.Bool("wouldClear", true)
		if cfg.BackupFolder != "" && filesystem.IsDir(d.fs, cfg.Resolve(cfg.BackupFolder)) {
			event = event.Str("wouldBackupTo", cfg.Resolve(cfg.BackupFolder))
		}
	}
	event.Msg("Dry run: destination left untouched")
}

// checkOverlap rejects layouts where staging would copy the scratch
// directory into itself or clearing would delete the staged files.
func checkOverlap(scratch, source, dest string) error {
	switch {
	case within(source, scratch):
		return errors.Newf(errors.ErrInvalidInput, "scratch directory %s is inside source %s", scratch, source)
	case within(scratch, source):
		return errors.Newf(errors.ErrInvalidInput, "source %s is inside scratch directory %s", source, scratch)
	case within(dest, scratch) || within(scratch, dest):
		return errors.Newf(errors.ErrInvalidInput, "destination %s overlaps scratch directory %s", dest, scratch)
	}
	return nil
}

// within reports whether child is parent or lies below it
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func ruleError(err error, code errors.ErrorCode, index int, format string, args ...interface{}) error {
	e := errors.Newf(code, format, args...).WithDetail("rule", index)
	e.Wrapped = err
	return e
}
