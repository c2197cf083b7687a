// Package biosphere builds the elementary flow mapping between two
// releases from the EE deletions sheet of a change report, backed by a
// uuid-keyed comparison of the releases' flow listings.
package biosphere
