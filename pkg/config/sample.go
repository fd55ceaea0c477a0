package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/filesystem"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is a configuration document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats lists the supported encodings
var Formats = []Format{FormatJSON, FormatTOML, FormatYAML}

// SampleFileName is the default name of a generated sample, without extension
const SampleFileName = "sample"

// ParseFormat accepts json, toml, yaml and yml in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown config format %q (want json, toml or yaml)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Ext returns the file extension for a format, with the leading dot
func (f Format) Ext() string {
	return "." + string(f)
}

// Sample returns a configuration with one placeholder rule of each kind
func Sample() *Config {
	return &Config{
		ReplaceFilter: "txt,json,xaml",
		BackupFolder:  "d:/backup",
		Replace: []ReplaceRule{{
			Find:        "[Text to find]",
			ReplaceWith: "[Replacement text]",
		}},
		Copy: []CopyRule{{
			Source:      "[source folder or .zip, absolute or relative to Config file]",
			Destination: "[where to copy to]",
		}},
	}
}

// Marshal encodes cfg in the given format
func Marshal(cfg *Config, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case FormatTOML:
		data, err = toml.Marshal(cfg)
	case FormatYAML:
		data, err = yaml.Marshal(cfg)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown config format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to encode %s", format)
	}
	return data, nil
}

// WriteSample writes Sample() to path in the given format and returns the
// absolute path written.
func WriteSample(fs afero.Fs, path string, format Format) (string, error) {
	data, err := Marshal(Sample(), format)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "can't resolve %s", path)
	}
	if err := fs.MkdirAll(filepath.Dir(absPath), filesystem.DirPerm); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "create %s", filepath.Dir(absPath))
	}
	if err := afero.WriteFile(fs, absPath, data, filesystem.FilePerm); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "write %s", absPath)
	}
	return absPath, nil
}
