// Package datapackage renders reconciliation results as migration
// datapackage documents and stores them through a Sink.
//
// The document carries descriptive metadata from the output configuration,
// the XPath label mappings for the addressed database, and the replace,
// disaggregate, and delete sections. Sections without entries are omitted.
// FileSink writes atomically into a locked output directory; S3Sink uploads
// to an S3-compatible bucket.
package datapackage
