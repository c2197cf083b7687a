// Package config loads, normalizes, and validates ecomigrate configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours ECOMIGRATE_S3_* environment fallbacks for the
// object storage sink. Path helpers derive the release layout
// (<releases_dir>/<version>/<system_model>/datasets) so callers never join
// those paths by hand.
package config
