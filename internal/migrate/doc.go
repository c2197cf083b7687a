// Package migrate orchestrates one technosphere or biosphere migration step.
//
// A Runner checks the release inputs, finds the change report, loads both
// releases through the catalog cache, applies the builtin and user patches,
// reconciles, and hands the datapackage to the configured sink. Every run
// gets a uuid run ID and a debug-level JSON run log, and optionally refreshes
// a Prometheus textfile. Errors are tagged so ExitCode can tell
// configuration problems from bad input data.
package migrate
