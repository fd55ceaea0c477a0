package config

import (
	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/paths"
	"github.com/arthur-debert/sdeploy/pkg/replace"
)

// ReplaceRule is a literal substitution applied to staged files
type ReplaceRule struct {
	Find        string `koanf:"Find" json:"Find" toml:"Find" yaml:"Find"`
	ReplaceWith string `koanf:"ReplaceWith" json:"ReplaceWith" toml:"ReplaceWith" yaml:"ReplaceWith"`
}

// CopyRule maps one source (directory or .zip) to one destination directory
type CopyRule struct {
	Source      string `koanf:"Source" json:"Source" toml:"Source" yaml:"Source"`
	Destination string `koanf:"Destination" json:"Destination" toml:"Destination" yaml:"Destination"`
}

// Config is a loaded deploy configuration. It is not modified after Load.
type Config struct {
	ReplaceFilter string        `koanf:"ReplaceFilter" json:"ReplaceFilter" toml:"ReplaceFilter" yaml:"ReplaceFilter"`
	Replace       []ReplaceRule `koanf:"Replace" json:"Replace" toml:"Replace" yaml:"Replace"`
	Copy          []CopyRule    `koanf:"Copy" json:"Copy" toml:"Copy" yaml:"Copy"`
	BackupFolder  string        `koanf:"BackupFolder" json:"BackupFolder" toml:"BackupFolder" yaml:"BackupFolder"`

	// Path is the absolute path of the config file
	Path string `koanf:"-" json:"-" toml:"-" yaml:"-"`
	// Dir is the directory relative paths are resolved against
	Dir string `koanf:"-" json:"-" toml:"-" yaml:"-"`
}

// Resolve makes a path from the configuration absolute
func (c *Config) Resolve(p string) string {
	return paths.NewResolver(c.Dir).Resolve(p)
}

// Filter returns the parsed ReplaceFilter
func (c *Config) Filter() replace.Filter {
	return replace.ParseFilter(c.ReplaceFilter)
}

// ReplaceRules converts the configured rules for the replace package
func (c *Config) ReplaceRules() []replace.Rule {
	rules := make([]replace.Rule, 0, len(c.Replace))
	for _, r := range c.Replace {
		rules = append(rules, replace.Rule{Find: r.Find, ReplaceWith: r.ReplaceWith})
	}
	return rules
}

// Validate checks rules for missing fields
func (c *Config) Validate() error {
	for i, rule := range c.Copy {
		if rule.Source == "" {
			return errors.Newf(errors.ErrConfigInvalid, "copy rule %d has no Source", i).
				WithDetail("rule", i)
		}
		if rule.Destination == "" {
			return errors.Newf(errors.ErrConfigInvalid, "copy rule %d has no Destination", i).
				WithDetail("rule", i)
		}
	}
	for i, rule := range c.Replace {
		if rule.Find == "" {
			return errors.Newf(errors.ErrConfigInvalid, "replace rule %d has an empty Find", i).
				WithDetail("rule", i)
		}
	}
	return nil
}
