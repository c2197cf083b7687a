// Package preflight provides readiness checks for the filesystem paths and
// object storage that ecomigrate depends on.
//
// These checks run in two contexts:
//   - The migration commands call RunForMigration before loading any input,
//     so a missing release or change report fails fast with a clear detail.
//   - The CLI "ecomigrate doctor" command prints RunAll alongside the
//     per-step checks.
//
// Output checks follow the configured driver.
package preflight
