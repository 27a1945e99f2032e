package browser

import (
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"

	"imgaudit/internal/domain"
)

// transferCapture merges the per-request CDP event stream into flat
// transfer records: requestWillBeSent carries the start time,
// responseReceived the mime type, loadingFinished the end time and the
// final encoded size. A transfer that never reached responseReceived is
// not surfaced; one that never finished keeps size 0 and end time 0.
type transferCapture struct {
	mu      sync.Mutex
	pending map[network.RequestID]*domain.RawTransfer
}

func newTransferCapture() *transferCapture {
	return &transferCapture{pending: make(map[network.RequestID]*domain.RawTransfer)}
}

func (c *transferCapture) listen(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		c.mu.Lock()
		c.pending[e.RequestID] = &domain.RawTransfer{
			URL:       e.Request.URL,
			StartTime: monotonicSeconds(e.Timestamp),
		}
		c.mu.Unlock()
	case *network.EventResponseReceived:
		c.mu.Lock()
		t, ok := c.pending[e.RequestID]
		if !ok {
			t = &domain.RawTransfer{URL: e.Response.URL}
			c.pending[e.RequestID] = t
		}
		t.MimeType = e.Response.MimeType
		t.ResponseReceivedTime = monotonicSeconds(e.Timestamp)
		c.mu.Unlock()
	case *network.EventLoadingFinished:
		c.mu.Lock()
		if t, ok := c.pending[e.RequestID]; ok {
			t.EndTime = monotonicSeconds(e.Timestamp)
			t.ResourceSize = int64(e.EncodedDataLength)
		}
		c.mu.Unlock()
	case *network.EventLoadingFailed:
		c.mu.Lock()
		delete(c.pending, e.RequestID)
		c.mu.Unlock()
	}
}

func (c *transferCapture) transfers() []domain.RawTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.RawTransfer, 0, len(c.pending))
	for _, t := range c.pending {
		if t.MimeType == "" {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func monotonicSeconds(ts *cdp.MonotonicTime) float64 {
	if ts == nil {
		return 0
	}
	return float64(ts.Time().UnixNano()) / 1e9
}
