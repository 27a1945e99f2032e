package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"imgaudit/internal/audit"
	"imgaudit/internal/domain"
	"imgaudit/internal/urlutil"
)

// Session is one live tab. It implements audit.PageSession. All chromedp
// actions run on the session's own context, which carries the page
// timeout; the caller context gates only the waiting.
type Session struct {
	ctx     context.Context
	wait    time.Duration
	capture *transferCapture
	logger  *zap.Logger
	close   func()

	mu          sync.Mutex
	documentURL string
}

func (s *Session) Close() { s.close() }

// Navigate loads pageURL and waits for the document plus a settle window
// for late image fetches.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.documentURL = pageURL
	s.mu.Unlock()

	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Transfers returns the network events captured since navigation.
func (s *Session) Transfers() []domain.RawTransfer {
	return s.capture.transfers()
}

// ReadElements runs the snapshot script in the page and parses the srcset
// candidate lists Go-side, so lenient candidate handling stays in one
// place.
func (s *Session) ReadElements(ctx context.Context) ([]domain.ElementDescriptor, error) {
	var elements []domain.ElementDescriptor
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(snapshotScript, &elements)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	base := s.documentURL
	s.mu.Unlock()
	for i := range elements {
		fillSrcsetCandidates(&elements[i], base)
	}
	return elements, nil
}

func fillSrcsetCandidates(el *domain.ElementDescriptor, base string) {
	el.SrcsetCandidateURLs = urlutil.ParseSrcsetCandidates(el.SrcsetRaw, base)
	for i := range el.Alternatives {
		fillSrcsetCandidates(&el.Alternatives[i], base)
	}
}

// ResolveSize loads url via a fresh off-DOM image in the page context and
// waits for decode or error. A rejected load comes back as a page-side
// exception and is reported as audit.ErrImageLoad; transport errors pass
// through untouched so the pass fails instead of under-reporting.
func (s *Session) ResolveSize(ctx context.Context, url string) (domain.IntrinsicSize, error) {
	expr := fmt.Sprintf(sizeProbeScript, strconv.Quote(url))
	var size domain.IntrinsicSize
	err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, &size, awaitPromise))
	if err != nil {
		var exc *runtime.ExceptionDetails
		if errors.As(err, &exc) {
			return domain.IntrinsicSize{}, fmt.Errorf("%w: %s", audit.ErrImageLoad, url)
		}
		return domain.IntrinsicSize{}, err
	}
	s.logger.Debug("resolved intrinsic size",
		zap.String("url", url), zap.Int("width", size.Width), zap.Int("height", size.Height))
	return size, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
