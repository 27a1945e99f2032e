package audit

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"imgaudit/internal/domain"
)

// Pipeline re-measures the records flagged for size resolution while
// preserving the positional order of the input. Concurrency selects the
// enrichment strategy: 1 (the default) is throttled-serial, keeping at
// most one re-decode in flight in the page context; 0 or less removes the
// bound and resolves all qualifying records in parallel. Both strategies
// assemble results by index, so output order never depends on completion
// order.
type Pipeline struct {
	Resolver    SizeResolver
	Concurrency int
	Logger      *zap.Logger

	// OnOutcome, when set, is called once per attempted resolution with
	// "resolved" or "failed".
	OnOutcome func(outcome string)
}

// Enrich returns a new slice with the same length and index-to-record
// identity as records. A resolver failure wrapping ErrImageLoad is
// absorbed: the record keeps its originally reported dimensions and no
// other record is affected. Any other resolver error fails the whole
// pass with no partial output.
func (p *Pipeline) Enrich(ctx context.Context, records []domain.ImageUsageRecord) ([]domain.ImageUsageRecord, error) {
	out := make([]domain.ImageUsageRecord, len(records))
	copy(out, records)

	g, ctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	for i := range out {
		if !out[i].NeedsSizeResolution || out[i].NetworkRecord == nil {
			continue
		}
		i := i
		g.Go(func() error {
			size, err := p.Resolver.ResolveSize(ctx, out[i].NetworkRecord.URL)
			if err != nil {
				if errors.Is(err, ErrImageLoad) {
					if p.OnOutcome != nil {
						p.OnOutcome("failed")
					}
					if p.Logger != nil {
						p.Logger.Warn("size resolution failed, keeping reported dimensions",
							zap.String("url", out[i].NetworkRecord.URL), zap.Error(err))
					}
					return nil
				}
				return err
			}
			if p.OnOutcome != nil {
				p.OnOutcome("resolved")
			}
			out[i].ReportedIntrinsicWidth = size.Width
			out[i].ReportedIntrinsicHeight = size.Height
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
