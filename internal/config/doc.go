// Package config loads, validates, and defaults matscribe's TOML
// configuration. Load resolves the config path (explicit flag, then
// ~/.config/matscribe/config.toml, then ./matscribe.toml), applies defaults,
// expands user paths, and validates every section before the rest of the
// program sees it.
package config
