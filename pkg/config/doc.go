// Package config loads deploy configurations.
//
// A configuration lists copy rules (source → destination), replace rules
// (literal find → replacement), the extension filter that selects which
// staged files get patched, and an optional backup folder. Documents may be
// JSON, TOML or YAML, chosen by file extension, with JSON as the fallback.
//
// Values are layered, lowest first:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. the config file itself
//  3. SDEPLOY_REPLACEFILTER and SDEPLOY_BACKUPFOLDER, which may come from a
//     .env file next to the config
//
// Relative paths inside a configuration are resolved against the directory
// containing the config file; see Config.Resolve.
package config
