// Package catalogcache persists parsed release catalogs and flow listings in
// a SQLite database keyed by release version, system model and snapshot
// kind.
//
// Snapshots carry a fingerprint of the files they were parsed from (file
// count or size, newest modification time). A changed release directory
// invalidates its snapshot on the next read. Writers take an advisory file
// lock next to the database so concurrent runs do not interleave.
package catalogcache
