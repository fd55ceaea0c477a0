package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDebounce = 50 * time.Millisecond
	waitFor      = 5 * time.Second
	tick         = 20 * time.Millisecond
)

type harness struct {
	runs    atomic.Int32
	errs    atomic.Int32
	changed atomic.Value
	cancel  context.CancelFunc
	done    chan error
}

// start runs a watcher in the background and waits for its first deploy
func start(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{done: make(chan error, 1)}

	run := opts.Run
	opts.Run = func(ctx context.Context) error {
		h.runs.Add(1)
		if run != nil {
			return run(ctx)
		}
		return nil
	}
	opts.OnError = func(error) { h.errs.Add(1) }
	opts.OnChange = func(path string) { h.changed.Store(path) }
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}

	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	require.Eventually(t, func() bool { return h.runs.Load() >= 1 }, waitFor, tick)
	// Let the watch set settle before touching files.
	time.Sleep(100 * time.Millisecond)
	return h
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNewRequiresCallbacks(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestWatchRedeploysOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "nested", "a.txt"), "a")

	h := start(t, Options{Targets: func() ([]string, error) { return []string{src}, nil }})

	target := filepath.Join(src, "nested", "a.txt")
	writeFile(t, target, "changed")

	require.Eventually(t, func() bool { return h.runs.Load() == 2 }, waitFor, tick)
	assert.Equal(t, target, h.changed.Load())
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0755))

	h := start(t, Options{
		Targets:  func() ([]string, error) { return []string{src}, nil },
		Debounce: 300 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(src, fmt.Sprintf("f%d.txt", i)), "x")
	}

	require.Eventually(t, func() bool { return h.runs.Load() == 2 }, waitFor, tick)
	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, int32(2), h.runs.Load(), "a burst triggers one deploy")
}

func TestWatchFileTarget(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "deploy.json")
	writeFile(t, cfgPath, "{}")

	h := start(t, Options{Targets: func() ([]string, error) { return []string{cfgPath}, nil }})

	writeFile(t, filepath.Join(dir, "unrelated.txt"), "x")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), h.runs.Load(), "siblings of a file target are ignored")

	writeFile(t, cfgPath, `{"Copy": []}`)
	require.Eventually(t, func() bool { return h.runs.Load() == 2 }, waitFor, tick)
}

func TestWatchIgnoredPaths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(src, "out")
	require.NoError(t, os.MkdirAll(out, 0755))

	h := start(t, Options{
		Targets: func() ([]string, error) { return []string{src}, nil },
		Ignore:  func() []string { return []string{out} },
	})

	writeFile(t, filepath.Join(out, "generated.txt"), "x")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), h.runs.Load())

	writeFile(t, filepath.Join(src, "real.txt"), "x")
	require.Eventually(t, func() bool { return h.runs.Load() == 2 }, waitFor, tick)
}

func TestWatchKeepsGoingAfterFailedDeploy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0755))

	h := start(t, Options{
		Targets: func() ([]string, error) { return []string{src}, nil },
		Run:     func(context.Context) error { return fmt.Errorf("boom") },
	})
	assert.Equal(t, int32(1), h.errs.Load())

	writeFile(t, filepath.Join(src, "a.txt"), "x")
	require.Eventually(t, func() bool { return h.runs.Load() == 2 }, waitFor, tick)
	require.Eventually(t, func() bool { return h.errs.Load() == 2 }, waitFor, tick)
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	h := start(t, Options{Targets: func() ([]string, error) { return []string{dir}, nil }})

	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
		h.done <- err
	case <-time.After(waitFor):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchTargetsErrorStopsStartup(t *testing.T) {
	w, err := New(Options{
		Run:     func(context.Context) error { return nil },
		Targets: func() ([]string, error) { return nil, fmt.Errorf("bad config") },
	})
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.EqualError(t, err, "bad config")
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/a/b", "/a/b"))
	assert.True(t, within("/a/b", "/a/b/c"))
	assert.False(t, within("/a/b", "/a/bc"))
	assert.False(t, within("/a/b", "/a"))
}
