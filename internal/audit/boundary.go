package audit

import (
	"context"

	"imgaudit/internal/domain"
)

// SnapshotReader executes inside the page context and returns one raw
// descriptor per rendered image-bearing element, in document order.
type SnapshotReader interface {
	ReadElements(ctx context.Context) ([]domain.ElementDescriptor, error)
}

// SizeResolver determines the true intrinsic pixel dimensions of url by
// issuing a fresh image load in the page context. Load and decode failures
// are reported as errors wrapping ErrImageLoad; anything else is treated
// as a failure of the pass itself.
type SizeResolver interface {
	ResolveSize(ctx context.Context, url string) (domain.IntrinsicSize, error)
}

// PageSession is one live tab at the target page. Transfers returns the
// network events captured since navigation; it has no ordering guarantee.
type PageSession interface {
	SnapshotReader
	SizeResolver
	Navigate(ctx context.Context, pageURL string) error
	Transfers() []domain.RawTransfer
	Close()
}

// SessionFactory opens page sessions. Injected so tests can substitute the
// whole browser boundary with a double.
type SessionFactory interface {
	NewSession(ctx context.Context) (PageSession, error)
}
