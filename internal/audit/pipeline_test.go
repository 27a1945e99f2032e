package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imgaudit/internal/domain"
)

// fakeResolver maps URLs to canned sizes or errors, with optional per-URL
// delay to exercise completion-order independence.
type fakeResolver struct {
	mu     sync.Mutex
	sizes  map[string]domain.IntrinsicSize
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func (f *fakeResolver) ResolveSize(ctx context.Context, url string) (domain.IntrinsicSize, error) {
	if d, ok := f.delays[url]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return domain.IntrinsicSize{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return domain.IntrinsicSize{}, err
	}
	return f.sizes[url], nil
}

func groupedRecord(url string, w, h int) domain.ImageUsageRecord {
	return domain.ImageUsageRecord{
		ElementDescriptor: domain.ElementDescriptor{
			TagName:                 domain.TagImg,
			EffectiveSrc:            url,
			IsPicture:               true,
			ReportedIntrinsicWidth:  w,
			ReportedIntrinsicHeight: h,
		},
		NetworkRecord:       &domain.NetworkRecord{URL: url},
		NeedsSizeResolution: true,
	}
}

func plainRecord(url string) domain.ImageUsageRecord {
	return domain.ImageUsageRecord{
		ElementDescriptor: domain.ElementDescriptor{TagName: domain.TagImg, EffectiveSrc: url},
	}
}

func TestPipelineEnrich(t *testing.T) {
	logger := zap.NewNop()

	t.Run("resolved sizes overwrite reported dimensions", func(t *testing.T) {
		resolver := &fakeResolver{sizes: map[string]domain.IntrinsicSize{
			"http://x/pic.png": {Width: 100, Height: 50},
		}}
		p := &Pipeline{Resolver: resolver, Concurrency: 1, Logger: logger}

		out, err := p.Enrich(context.Background(), []domain.ImageUsageRecord{
			groupedRecord("http://x/pic.png", 0, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, 100, out[0].ReportedIntrinsicWidth)
		assert.Equal(t, 50, out[0].ReportedIntrinsicHeight)
	})

	t.Run("order preserved when middle record is slow", func(t *testing.T) {
		resolver := &fakeResolver{
			sizes: map[string]domain.IntrinsicSize{
				"http://x/a.png": {Width: 1, Height: 1},
				"http://x/b.png": {Width: 2, Height: 2},
				"http://x/c.png": {Width: 3, Height: 3},
			},
			delays: map[string]time.Duration{"http://x/b.png": 80 * time.Millisecond},
		}
		// Unbounded parallel strategy: completion order differs from
		// snapshot order, output order must not.
		p := &Pipeline{Resolver: resolver, Concurrency: 0, Logger: logger}

		out, err := p.Enrich(context.Background(), []domain.ImageUsageRecord{
			groupedRecord("http://x/a.png", 0, 0),
			groupedRecord("http://x/b.png", 0, 0),
			groupedRecord("http://x/c.png", 0, 0),
		})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "http://x/a.png", out[0].EffectiveSrc)
		assert.Equal(t, "http://x/b.png", out[1].EffectiveSrc)
		assert.Equal(t, "http://x/c.png", out[2].EffectiveSrc)
		assert.Equal(t, 2, out[1].ReportedIntrinsicWidth)
	})

	t.Run("throttled-serial resolves in snapshot order", func(t *testing.T) {
		resolver := &fakeResolver{sizes: map[string]domain.IntrinsicSize{
			"http://x/a.png": {Width: 1, Height: 1},
			"http://x/b.png": {Width: 2, Height: 2},
			"http://x/c.png": {Width: 3, Height: 3},
		}}
		p := &Pipeline{Resolver: resolver, Concurrency: 1, Logger: logger}

		_, err := p.Enrich(context.Background(), []domain.ImageUsageRecord{
			groupedRecord("http://x/a.png", 0, 0),
			groupedRecord("http://x/b.png", 0, 0),
			groupedRecord("http://x/c.png", 0, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"http://x/a.png", "http://x/b.png", "http://x/c.png"}, resolver.calls)
	})

	t.Run("load failure keeps original dimensions and spares other records", func(t *testing.T) {
		resolver := &fakeResolver{
			sizes: map[string]domain.IntrinsicSize{"http://x/ok.png": {Width: 640, Height: 480}},
			errs:  map[string]error{"http://x/bad.png": fmt.Errorf("%w: decode error", ErrImageLoad)},
		}
		p := &Pipeline{Resolver: resolver, Concurrency: 1, Logger: logger}

		out, err := p.Enrich(context.Background(), []domain.ImageUsageRecord{
			groupedRecord("http://x/bad.png", 10, 20),
			groupedRecord("http://x/ok.png", 0, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, 10, out[0].ReportedIntrinsicWidth)
		assert.Equal(t, 20, out[0].ReportedIntrinsicHeight)
		assert.Equal(t, 640, out[1].ReportedIntrinsicWidth)
	})

	t.Run("records not needing resolution pass through untouched", func(t *testing.T) {
		resolver := &fakeResolver{}
		p := &Pipeline{Resolver: resolver, Concurrency: 1, Logger: logger}

		in := []domain.ImageUsageRecord{plainRecord("http://x/a.png"), plainRecord("http://x/b.png")}
		out, err := p.Enrich(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Empty(t, resolver.calls)
	})

	t.Run("non-load errors fail the pass", func(t *testing.T) {
		disconnect := errors.New("target closed")
		resolver := &fakeResolver{errs: map[string]error{"http://x/a.png": disconnect}}
		p := &Pipeline{Resolver: resolver, Concurrency: 1, Logger: logger}

		out, err := p.Enrich(context.Background(), []domain.ImageUsageRecord{
			groupedRecord("http://x/a.png", 0, 0),
		})
		require.ErrorIs(t, err, disconnect)
		assert.Nil(t, out)
	})
}
