// Package replace applies literal find/replace rules to staged files.
//
// Rules run in order and cascade: each rule sees the output of the previous
// one, so [A→B, B→C] turns "A" into "C". Matching is plain substring
// matching, never regular expressions. Which files are touched is decided
// by a Filter built from the configuration's extension list.
package replace

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/spf13/afero"
)

// Wildcard matches every file regardless of extension
const Wildcard = "*"

// Rule is a single literal substitution
type Rule struct {
	Find        string
	ReplaceWith string
}

// Filter decides which files qualify for substitution
type Filter struct {
	all  bool
	exts map[string]struct{}
	raw  string
}

// ParseFilter builds a Filter from a comma-separated extension list such as
// "txt,json" or ".txt, .json", or from the wildcard "*". Extensions are
// case-sensitive. An empty spec matches nothing.
func ParseFilter(spec string) Filter {
	f := Filter{raw: spec, exts: make(map[string]struct{})}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == Wildcard {
			f.all = true
			continue
		}
		part = strings.TrimPrefix(part, ".")
		if part == "" {
			continue
		}
		f.exts["."+part] = struct{}{}
	}
	return f
}

// Matches reports whether the file at path qualifies
func (f Filter) Matches(path string) bool {
	if f.all {
		return true
	}
	_, ok := f.exts[filepath.Ext(path)]
	return ok
}

// String returns the text the filter was parsed from
func (f Filter) String() string {
	return f.raw
}

// Apply runs every rule, in order, over content
func Apply(content string, rules []Rule) string {
	for _, rule := range rules {
		if rule.Find == "" {
			continue
		}
		content = strings.ReplaceAll(content, rule.Find, rule.ReplaceWith)
	}
	return content
}

// Result summarizes a Files call
type Result struct {
	// Matched counts files that passed the filter
	Matched int
	// Changed lists files whose content was rewritten
	Changed []string
}

// Files applies rules to every path in files that passes filter. Files whose
// content does not change are left untouched; changed files keep their mode.
func Files(fs afero.Fs, files []string, filter Filter, rules []Rule) (Result, error) {
	var result Result
	if len(rules) == 0 {
		return result, nil
	}

	for _, path := range files {
		if !filter.Matches(path) {
			continue
		}
		result.Matched++

		info, err := fs.Stat(path)
		if err != nil {
			return result, errors.Wrapf(err, errors.ErrFileAccess, "stat %s", path)
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return result, errors.Wrapf(err, errors.ErrFileAccess, "read %s", path)
		}

		original := string(data)
		patched := Apply(original, rules)
		if patched == original {
			continue
		}

		if err := afero.WriteFile(fs, path, []byte(patched), info.Mode().Perm()); err != nil {
			return result, errors.Wrapf(err, errors.ErrFileWrite, "write %s", path)
		}
		result.Changed = append(result.Changed, path)
	}

	return result, nil
}
