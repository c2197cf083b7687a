// Package catalog models release contents: process identity keys, the
// read-only per-release process catalog with production volumes, and the
// elementary flow listing.
//
// Loaders read the unpacked ecoSpold2 release layout. Catalogs are built once
// per run and passed explicitly to the reconciliation engine; nothing here is
// process-global.
package catalog
