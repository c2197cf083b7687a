// Package textutil holds small text helpers: TF-IDF fingerprints of dataset
// names used to suggest near misses for keys that fail to resolve, and file
// name sanitization for datapackage outputs.
package textutil
