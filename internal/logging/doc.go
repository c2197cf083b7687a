// Package logging builds the slog loggers used by ecomigrate.
//
// The console handler prints a header line per record followed by the
// highlighted attributes; the JSON handler backs both the json console format
// and the per-run debug file opened by OpenRunLog. Warnings go
// through WarnWithContext so every one carries event_type, error_hint and
// impact.
package logging
