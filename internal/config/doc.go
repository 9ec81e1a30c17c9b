// Package config loads, normalizes, and validates seqlink configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SEQLINK_ROOT and SEQLINK_RATE. The Config type centralizes every knob the
// linker and CLI need: the default search root and filename filter, the
// fallback frame rate, the metadata backend, and the persistent index store.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical selection modes, and clear validation errors.
package config
