package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

const (
	// DirPerm is used for every directory the pipeline creates
	DirPerm os.FileMode = 0755
	// FilePerm is used when a source file mode is unavailable
	FilePerm os.FileMode = 0644
)

// NewOS returns the OS-backed filesystem
func NewOS() afero.Fs {
	return afero.NewOsFs()
}

// IsDir reports whether path exists and is a directory
func IsDir(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}

// IsFile reports whether path exists and is not a directory
func IsFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// CopyStats summarizes a CopyTree call
type CopyStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// CopyTree recursively copies the contents of src into dst. dst is created
// if missing; existing files in dst are overwritten.
func CopyTree(fs afero.Fs, src, dst string) (CopyStats, error) {
	var stats CopyStats

	if err := fs.MkdirAll(dst, DirPerm); err != nil {
		return stats, err
	}

	err := afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			stats.Dirs++
			return fs.MkdirAll(target, DirPerm)
		}

		n, err := CopyFile(fs, path, target, info.Mode().Perm())
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})

	return stats, err
}

// CopyFile copies one file, creating parent directories as needed, and
// returns the number of bytes written. A zero perm falls back to FilePerm.
func CopyFile(fs afero.Fs, src, dst string, perm os.FileMode) (int64, error) {
	if perm == 0 {
		perm = FilePerm
	}

	in, err := fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
		return 0, err
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	return n, out.Close()
}

// EmptyDir deletes every file and subdirectory of dir but keeps dir itself
func EmptyDir(fs afero.Fs, dir string) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fs.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ResetDir removes dir if present and recreates it empty
func ResetDir(fs afero.Fs, dir string) error {
	if err := fs.RemoveAll(dir); err != nil {
		return err
	}
	return fs.MkdirAll(dir, DirPerm)
}

// ListFiles returns every non-directory path below root, sorted
func ListFiles(fs afero.Fs, root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
