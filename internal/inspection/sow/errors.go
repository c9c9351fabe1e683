package sow

import "errors"

var (
	ErrEmptyReportNumber     = errors.New("report number is required")
	ErrDuplicateReportNumber = errors.New("report number already exists")
	ErrUnknownReport         = errors.New("report number not found")
	ErrNoReportNumbers       = errors.New("at least one report number is required")
	ErrLastReportNumber      = errors.New("cannot remove the last report number")
	ErrCopyDecisionPending   = errors.New("a report is waiting for a copy-scope decision")
	ErrNoPendingReport       = errors.New("no report is waiting for a copy-scope decision")
	ErrInvalidCopyMode       = errors.New("invalid copy mode")
	ErrUnknownComponent      = errors.New("component not found")
	ErrNoElevation           = errors.New("component has no elevation span")
	ErrElevationOutOfBounds  = errors.New("elevation outside component bounds")
	ErrRangeOutOfBounds      = errors.New("elevation range outside component bounds")
	ErrConflictingScope      = errors.New("whole-component and split selections for the same component and inspection type")
)
