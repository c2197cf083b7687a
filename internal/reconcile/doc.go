// Package reconcile turns change report rows into a technosphere migration
// mapping of one-to-one replacements and production-volume weighted
// disaggregations. Nothing in this package touches the filesystem; catalogs
// and patches are loaded by the caller.
package reconcile
