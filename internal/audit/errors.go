package audit

import "errors"

var (
	// ErrSnapshotUnavailable means the page snapshot could not be taken or
	// returned non-conforming data. Fatal: the whole pass fails and no
	// partial record sequence is surfaced.
	ErrSnapshotUnavailable = errors.New("element snapshot unavailable")

	// ErrImageLoad is a per-record soft failure of the size resolver; the
	// affected record keeps its originally reported dimensions.
	ErrImageLoad = errors.New("image load failed")

	// ErrNavigationFailed means the page could not be reached at all.
	ErrNavigationFailed = errors.New("navigation failed")

	// ErrAuditTimeout means a pass exceeded its configured deadline.
	ErrAuditTimeout = errors.New("audit timed out")
)
