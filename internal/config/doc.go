// Package config loads, normalizes, and validates subcards configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEEPL_API_KEY and OPENROUTER_API_KEY. Validation failures here are the only
// errors that stop a run before any processing starts.
package config
