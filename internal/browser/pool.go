// Package browser implements the page-context boundary of the audit over
// chromedp: session management, network transfer capture, and in-page
// script execution for the element snapshot and size resolution.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"imgaudit/internal/audit"
)

// Options configure the browser pool.
type Options struct {
	ChromePath    string
	Headless      bool
	PageTimeout   time.Duration
	WaitAfterLoad time.Duration
}

// Pool hands out page sessions backed by a pool of Chrome exec allocators.
// It implements audit.SessionFactory.
type Pool struct {
	opt    Options
	alloc  sync.Pool
	logger *zap.Logger
}

func NewPool(opt Options, logger *zap.Logger) *Pool {
	p := &Pool{opt: opt, logger: logger}
	p.alloc.New = func() interface{} {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opt.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opt.ChromePath != "" {
			opts = append(opts, chromedp.ExecPath(opt.ChromePath))
		}
		allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
		return allocCtx
	}
	return p
}

// NewSession opens a fresh tab with network capture enabled. The session
// carries its own deadline; ctx only gates the setup.
func (p *Pool) NewSession(ctx context.Context) (audit.PageSession, error) {
	allocCtx := p.alloc.Get().(context.Context)
	taskCtx, cancelTab := chromedp.NewContext(allocCtx)
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, p.opt.PageTimeout)

	sess := &Session{
		ctx:     taskCtx,
		wait:    p.opt.WaitAfterLoad,
		capture: newTransferCapture(),
		logger:  p.logger,
		close: func() {
			cancelTimeout()
			cancelTab()
			p.alloc.Put(allocCtx)
		},
	}

	chromedp.ListenTarget(taskCtx, sess.capture.listen)
	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}
