// Package watch re-runs deploys when the configuration or a source changes.
//
// A Watcher runs one deploy up front, then follows the paths returned by
// its Targets function. Directories are watched recursively. Files are
// watched through their parent directory, which survives editors that
// replace files on save. Bursts of events are debounced into a single
// deploy and deploys never overlap.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before a change triggers a deploy
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher
type Options struct {
	// Run performs one deploy
	Run func(ctx context.Context) error
	// Targets returns the absolute paths to follow. It is called after
	// every deploy so the watch set tracks configuration edits.
	Targets func() ([]string, error)
	// Ignore lists paths whose events never trigger a deploy, such as
	// the scratch directory or destinations
	Ignore func() []string
	// Debounce defaults to DefaultDebounce
	Debounce time.Duration
	// OnChange is called with the last changed path before a redeploy
	OnChange func(path string)
	// OnError receives deploy and target errors; watching continues
	OnError func(err error)
}

// Watcher follows targets and triggers deploys
type Watcher struct {
	opts   Options
	fsw    *fsnotify.Watcher
	logger zerolog.Logger

	// roots are directory targets, files are file targets
	roots   []string
	files   map[string]bool
	ignore  []string
	watched map[string]bool
}

// New validates opts and creates a Watcher
func New(opts Options) (*Watcher, error) {
	if opts.Run == nil || opts.Targets == nil {
		return nil, errors.New(errors.ErrInvalidInput, "watch needs Run and Targets")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Ignore == nil {
		opts.Ignore = func() []string { return nil }
	}
	if opts.OnChange == nil {
		opts.OnChange = func(string) {}
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	return &Watcher{
		opts:    opts,
		logger:  logging.GetLogger("watch"),
		files:   map[string]bool{},
		watched: map[string]bool{},
	}, nil
}

// Run deploys once, then redeploys on every debounced change until ctx is
// done. It returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to create file watcher")
	}
	defer fsw.Close()
	w.fsw = fsw

	w.deploy(ctx)
	if err := w.sync(); err != nil {
		return err
	}

	var (
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if event.Has(fsnotify.Create) && w.underRoot(event.Name) {
				w.addTree(event.Name)
			}
			pending = event.Name
			fire = time.After(w.opts.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-fire:
			fire = nil
			w.opts.OnChange(pending)
			w.deploy(ctx)
			if err := w.sync(); err != nil {
				w.opts.OnError(err)
			}
		}
	}
}

func (w *Watcher) deploy(ctx context.Context) {
	if err := w.opts.Run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn().Err(err).Msg("Deploy failed, still watching")
		w.opts.OnError(err)
	}
}

// sync rebuilds the watch set from Targets
func (w *Watcher) sync() error {
	targets, err := w.opts.Targets()
	if err != nil {
		return err
	}

	w.roots = w.roots[:0]
	w.files = map[string]bool{}
	w.ignore = w.ignore[:0]
	for _, p := range w.opts.Ignore() {
		w.ignore = append(w.ignore, filepath.Clean(p))
	}

	wanted := map[string]bool{}
	for _, target := range targets {
		target = filepath.Clean(target)
		info, err := os.Stat(target)
		switch {
		case err == nil && info.IsDir():
			w.roots = append(w.roots, target)
			_ = filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					if w.ignored(p) {
						return filepath.SkipDir
					}
					wanted[p] = true
				}
				return nil
			})
		default:
			// Missing targets are followed through their parent so that
			// creating them triggers a deploy.
			w.files[target] = true
			if parent := filepath.Dir(target); dirExists(parent) {
				wanted[parent] = true
			}
		}
	}

	for dir := range w.watched {
		if !wanted[dir] {
			_ = w.fsw.Remove(dir)
			delete(w.watched, dir)
		}
	}
	for dir := range wanted {
		if !w.watched[dir] {
			w.add(dir)
		}
	}

	w.logger.Debug().Int("dirs", len(w.watched)).Int("targets", len(targets)).Msg("Watch set updated")
	return nil
}

func (w *Watcher) add(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn().Err(err).Str("dir", dir).Msg("Cannot watch directory")
		return
	}
	w.watched[dir] = true
}

// addTree watches a directory created below a root, with its subdirectories
func (w *Watcher) addTree(path string) {
	if !dirExists(path) {
		return
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && !w.watched[p] && !w.ignored(p) {
			w.add(p)
		}
		return nil
	})
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.ignored(name) {
		return false
	}
	return w.files[name] || w.underRoot(name)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if within(root, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if within(p, path) {
			return true
		}
	}
	return false
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
