// Package patches loads additive and corrective change report patches. A
// set of patches ships with the binary for known release pairs; users may
// add their own YAML files to the configured patches directory.
package patches
