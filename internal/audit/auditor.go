// Package audit implements the image-usage correlation and enrichment
// pass: it joins a snapshot of rendered image elements against the
// network transfers observed during page load and re-measures intrinsic
// sizes where the browser's reported values are known to be unreliable.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imgaudit/internal/domain"
)

// Auditor runs complete audit passes. Each pass is self-contained: all
// entities live only for the duration of building the output and no state
// is shared across passes.
type Auditor struct {
	sessions          SessionFactory
	enrichConcurrency int
	logger            *zap.Logger
	onResolution      func(outcome string)
}

func NewAuditor(sessions SessionFactory, enrichConcurrency int, logger *zap.Logger) *Auditor {
	return &Auditor{
		sessions:          sessions,
		enrichConcurrency: enrichConcurrency,
		logger:            logger,
	}
}

// SetResolutionObserver registers a per-resolution outcome callback,
// typically a metrics counter.
func (a *Auditor) SetResolutionObserver(fn func(outcome string)) {
	a.onResolution = fn
}

// Run executes one pass against pageURL: navigate, capture transfers,
// snapshot elements, correlate, enrich. On a fatal error (navigation,
// snapshot, browser disconnect) the pass fails as a whole and no partial
// records are returned.
func (a *Auditor) Run(ctx context.Context, pageURL string) (*domain.AuditResult, error) {
	sess, err := a.sessions.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page session: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigationFailed, pageURL, err)
	}

	elements, err := sess.ReadElements(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	records := CorrelateTransfers(elements, sess.Transfers(), pageURL)

	pipeline := &Pipeline{
		Resolver:    sess,
		Concurrency: a.enrichConcurrency,
		Logger:      a.logger,
		OnOutcome:   a.onResolution,
	}
	enriched, err := pipeline.Enrich(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("enrich records: %w", err)
	}

	a.logger.Info("audit pass completed",
		zap.String("url", pageURL),
		zap.Int("elements", len(elements)),
		zap.Int("records", len(enriched)))

	return &domain.AuditResult{
		URL:       pageURL,
		Records:   enriched,
		Status:    domain.StatusCompleted,
		AuditedAt: time.Now(),
	}, nil
}
