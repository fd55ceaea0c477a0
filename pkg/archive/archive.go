// Package archive reads and writes the zip files the deploy pipeline uses:
// zipped build artifacts on the way in, destination backups on the way out.
package archive

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/filesystem"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// Ext is the only source file extension treated as an archive
const Ext = ".zip"

// IsArchive reports whether path names a zip archive by extension
func IsArchive(p string) bool {
	return filepath.Ext(p) == Ext
}

// ExtractOptions controls Extract
type ExtractOptions struct {
	// FlattenSingleRoot hoists the contents of a lone top-level directory
	// to the destination root when the archive has no top-level files.
	FlattenSingleRoot bool
}

// ExtractResult summarizes an Extract call
type ExtractResult struct {
	Files int
	Bytes int64
	// Root is the name of the hoisted top-level directory, if any
	Root string
}

// Extract unpacks the zip at zipPath into dst
func Extract(fs afero.Fs, zipPath, dst string, opts ExtractOptions) (ExtractResult, error) {
	var result ExtractResult

	f, err := fs.Open(zipPath)
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrArchive, "open %s", zipPath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrArchive, "stat %s", zipPath)
	}

	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrArchive, "read %s", zipPath)
	}

	names := make([]string, 0, len(r.File))
	for _, zf := range r.File {
		name, err := entryName(zf.Name)
		if err != nil {
			return result, err
		}
		names = append(names, name)
	}

	prefix := ""
	if opts.FlattenSingleRoot {
		if root, ok := singleRoot(r.File, names); ok {
			result.Root = root
			prefix = root + "/"
		}
	}

	if err := fs.MkdirAll(dst, filesystem.DirPerm); err != nil {
		return result, errors.Wrapf(err, errors.ErrDirCreate, "create %s", dst)
	}

	for i, zf := range r.File {
		if names[i] == "" || (prefix != "" && names[i] == result.Root) {
			continue
		}
		name := strings.TrimPrefix(names[i], prefix)
		target := filepath.Join(dst, filepath.FromSlash(name))

		if zf.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, filesystem.DirPerm); err != nil {
				return result, errors.Wrapf(err, errors.ErrDirCreate, "create %s", target)
			}
			continue
		}

		n, err := extractFile(fs, zf, target)
		if err != nil {
			return result, errors.Wrapf(err, errors.ErrArchive, "extract %s", zf.Name)
		}
		result.Files++
		result.Bytes += n
	}

	return result, nil
}

func extractFile(fs afero.Fs, zf *zip.File, target string) (int64, error) {
	rc, err := zf.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	if err := fs.MkdirAll(filepath.Dir(target), filesystem.DirPerm); err != nil {
		return 0, err
	}

	perm := zf.Mode().Perm()
	if perm == 0 {
		perm = filesystem.FilePerm
	}
	out, err := fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, rc)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	return n, out.Close()
}

// entryName cleans a zip entry name to a relative slash path and rejects
// names that would land outside the extraction directory.
func entryName(raw string) (string, error) {
	name := strings.ReplaceAll(raw, `\`, "/")
	if path.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", errors.Newf(errors.ErrInvalidInput, "zip entry %q has an absolute path", raw)
	}
	name = path.Clean(name)
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", errors.Newf(errors.ErrInvalidInput, "zip entry %q escapes the extraction directory", raw)
	}
	if name == "." {
		return "", nil
	}
	return name, nil
}

// singleRoot reports the lone top-level directory of an archive. It fails
// when any file sits at the top level or more than one top-level name exists.
func singleRoot(files []*zip.File, names []string) (string, bool) {
	root := ""
	for i, name := range names {
		if name == "" {
			continue
		}
		first, _, nested := strings.Cut(name, "/")
		if !nested && !files[i].FileInfo().IsDir() {
			return "", false
		}
		if root == "" {
			root = first
		} else if root != first {
			return "", false
		}
	}
	return root, root != ""
}

// CreateResult summarizes a Create call
type CreateResult struct {
	Files int
	Dirs  int
	Bytes int64
}

// Create writes the contents of srcDir into a new zip at zipPath. Entry
// names are relative to srcDir; directories get their own entries so empty
// ones survive a round trip. A partial archive is removed on failure.
func Create(fs afero.Fs, srcDir, zipPath string) (result CreateResult, err error) {
	out, err := fs.OpenFile(zipPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filesystem.FilePerm)
	if err != nil {
		return result, errors.Wrapf(err, errors.ErrFileWrite, "create %s", zipPath)
	}
	defer func() {
		if err != nil {
			_ = fs.Remove(zipPath)
		}
	}()

	w := zip.NewWriter(out)

	walkErr := afero.Walk(fs, srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." || p == zipPath {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
			if _, err := w.CreateHeader(header); err != nil {
				return err
			}
			result.Dirs++
			return nil
		}

		header.Method = zip.Deflate
		entry, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		in, err := fs.Open(p)
		if err != nil {
			return err
		}
		n, err := io.Copy(entry, in)
		_ = in.Close()
		if err != nil {
			return err
		}
		result.Files++
		result.Bytes += n
		return nil
	})

	closeErr := w.Close()
	fileErr := out.Close()

	switch {
	case walkErr != nil:
		return result, errors.Wrapf(walkErr, errors.ErrArchive, "archive %s", srcDir)
	case closeErr != nil:
		return result, errors.Wrapf(closeErr, errors.ErrArchive, "finish %s", zipPath)
	case fileErr != nil:
		return result, errors.Wrapf(fileErr, errors.ErrFileWrite, "close %s", zipPath)
	}
	return result, nil
}
