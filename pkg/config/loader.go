package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides
const EnvPrefix = "SDEPLOY_"

// DotEnvFile is loaded from the config directory when present
const DotEnvFile = ".env"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// canonicalKeys maps lower-cased top-level keys to their struct keys
var canonicalKeys = map[string]string{
	"replacefilter": "ReplaceFilter",
	"replace":       "Replace",
	"copy":          "Copy",
	"backupfolder":  "BackupFolder",
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Load reads the configuration at path and layers defaults and environment
// overrides around it.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigNotFound, "can't resolve %s", path)
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		e := errors.Newf(errors.ErrConfigNotFound, "can't find %s", absPath)
		e.Wrapped = err
		return nil, e
	}
	dir := filepath.Dir(absPath)

	if err := loadDotEnv(dir); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load defaults")
	}

	// 2. Config file, with top-level keys canonicalized so that
	// "replaceFilter" and "ReplaceFilter" land on the same key
	fileK := koanf.New(".")
	if err := fileK.Load(file.Provider(absPath), parserFor(absPath)); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", absPath)
	}
	if err := k.Load(confmap.Provider(canonicalize(fileK.Raw()), "."), nil); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to merge %s", absPath)
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load environment overrides")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				sliceToCommaStringHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to decode %s", absPath)
	}

	cfg.Path = absPath
	cfg.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", absPath).
		Str("filter", cfg.ReplaceFilter).
		Int("copyRules", len(cfg.Copy)).
		Int("replaceRules", len(cfg.Replace)).
		Str("backupFolder", cfg.BackupFolder).
		Msg("Configuration loaded")

	return &cfg, nil
}

// parserFor picks a koanf parser by file extension, defaulting to JSON
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser()
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}

// loadDotEnv loads <dir>/.env into the process environment. Variables that
// are already set are not overridden.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s", path)
	}
	return nil
}

// envKey maps SDEPLOY_REPLACEFILTER to ReplaceFilter and so on. Unknown
// variables map to "" and are ignored.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	switch canonical := canonicalKeys[key]; canonical {
	case "ReplaceFilter", "BackupFolder":
		return canonical
	default:
		return ""
	}
}

// canonicalize rewrites top-level keys to their canonical spelling. Unknown
// keys are kept as-is and later ignored by the decoder.
func canonicalize(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		if canonical, ok := canonicalKeys[strings.ToLower(key)]; ok {
			key = canonical
		}
		out[key] = value
	}
	return out
}

// sliceToCommaStringHookFunc lets ReplaceFilter be written as a list
func sliceToCommaStringHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.Slice || t.Kind() != reflect.String {
			return data, nil
		}
		items, ok := data.([]interface{})
		if !ok {
			return data, nil
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), nil
	}
}
