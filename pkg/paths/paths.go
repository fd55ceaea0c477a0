package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver turns configuration paths into absolute, cleaned paths
type Resolver struct {
	base string
}

// NewResolver creates a resolver rooted at base. A relative base is made
// absolute against the working directory.
func NewResolver(base string) Resolver {
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return Resolver{base: filepath.Clean(base)}
}

// Resolve normalizes p and makes it absolute against the resolver base.
// An empty path resolves to the empty string.
func (r Resolver) Resolve(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	p = ExpandPath(Normalize(p))
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.base, p)
	}
	return filepath.Clean(p)
}

// Normalize converts backslash separators into the platform separator
func Normalize(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "~" {
		if home, ok := homeDir(); ok {
			return home
		}
		return path
	}

	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		if home, ok := homeDir(); ok {
			return filepath.Join(home, os.ExpandEnv(path[2:]))
		}
		return path
	}

	return os.ExpandEnv(path)
}

// homeDir tries os.UserHomeDir first, then the HOME environment variable
func homeDir() (string, bool) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, true
	}
	if home := os.Getenv("HOME"); home != "" {
		return home, true
	}
	return "", false
}
