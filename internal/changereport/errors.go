package changereport

import "errors"

var (
	// ErrReportNotFound means no change report annex names the target version.
	ErrReportNotFound = errors.New("change report not found")
	// ErrAmbiguousReport means several change report annexes name the target version.
	ErrAmbiguousReport = errors.New("multiple change reports match")
	// ErrVersionJump means the available change report starts from a
	// different source version.
	ErrVersionJump = errors.New("no change report between these versions")
	// ErrSheetNotFound means no sheet matches the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrAmbiguousSheet means several sheets match the requested name.
	ErrAmbiguousSheet = errors.New("multiple sheets match")
)
