package testutil

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Operations FailingFs can fail
const (
	OpOpen      = "open"
	OpOpenFile  = "openfile"
	OpCreate    = "create"
	OpMkdir     = "mkdir"
	OpMkdirAll  = "mkdirall"
	OpRemove    = "remove"
	OpRemoveAll = "removeall"
	OpRename    = "rename"
)

type failure struct {
	skip int
	err  error
}

// FailingFs wraps an afero.Fs and returns injected errors for selected
// operation and path pairs
type FailingFs struct {
	afero.Fs

	mu       sync.Mutex
	failures map[string]*failure
}

// NewFailingFs wraps base
func NewFailingFs(base afero.Fs) *FailingFs {
	return &FailingFs{Fs: base, failures: map[string]*failure{}}
}

// FailOn makes every op on path return err
func (f *FailingFs) FailOn(op, path string, err error) {
	f.FailOnAfter(op, path, 0, err)
}

// FailOnAfter lets the first skip calls of op on path through, then
// returns err
func (f *FailingFs) FailOnAfter(op, path string, skip int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key(op, path)] = &failure{skip: skip, err: err}
}

func key(op, path string) string {
	return op + ":" + filepath.Clean(path)
}

func (f *FailingFs) check(op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.failures[key(op, path)]
	if !ok {
		return nil
	}
	if fl.skip > 0 {
		fl.skip--
		return nil
	}
	return &os.PathError{Op: op, Path: path, Err: fl.err}
}

func (f *FailingFs) Open(name string) (afero.File, error) {
	if err := f.check(OpOpen, name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.check(OpOpenFile, name); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FailingFs) Create(name string) (afero.File, error) {
	if err := f.check(OpCreate, name); err != nil {
		return nil, err
	}
	return f.Fs.Create(name)
}

func (f *FailingFs) Mkdir(name string, perm os.FileMode) error {
	if err := f.check(OpMkdir, name); err != nil {
		return err
	}
	return f.Fs.Mkdir(name, perm)
}

func (f *FailingFs) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}
	return f.Fs.MkdirAll(path, perm)
}

func (f *FailingFs) Remove(name string) error {
	if err := f.check(OpRemove, name); err != nil {
		return err
	}
	return f.Fs.Remove(name)
}

func (f *FailingFs) RemoveAll(path string) error {
	if err := f.check(OpRemoveAll, path); err != nil {
		return err
	}
	return f.Fs.RemoveAll(path)
}

func (f *FailingFs) Rename(oldname, newname string) error {
	if err := f.check(OpRename, oldname); err != nil {
		return err
	}
	return f.Fs.Rename(oldname, newname)
}
