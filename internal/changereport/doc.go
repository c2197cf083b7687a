// Package changereport reads vendor change report annexes: it finds the
// annex for a version pair, opens the xlsx workbook, selects sheets by
// case-folded name and turns sheet grids into rows of optional cells.
package changereport
