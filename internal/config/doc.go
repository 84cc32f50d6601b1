// Package config loads, normalizes, and validates bandstand's TOML
// configuration. Load applies repository defaults first, then decodes the
// config file over them, expands ~ paths, and validates the result. A missing
// config file is not an error; the defaults are usable out of the box with
// all remote integrations disabled.
package config
