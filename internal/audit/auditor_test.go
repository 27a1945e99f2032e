package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imgaudit/internal/domain"
)

// fakeSession implements PageSession in-memory.
type fakeSession struct {
	elements    []domain.ElementDescriptor
	snapshotErr error
	navigateErr error
	transfers   []domain.RawTransfer
	sizes       map[string]domain.IntrinsicSize
	resolveErr  error
	closed      bool
}

func (s *fakeSession) Navigate(ctx context.Context, pageURL string) error { return s.navigateErr }

func (s *fakeSession) ReadElements(ctx context.Context) ([]domain.ElementDescriptor, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return s.elements, nil
}

func (s *fakeSession) ResolveSize(ctx context.Context, url string) (domain.IntrinsicSize, error) {
	if s.resolveErr != nil {
		return domain.IntrinsicSize{}, s.resolveErr
	}
	return s.sizes[url], nil
}

func (s *fakeSession) Transfers() []domain.RawTransfer { return s.transfers }
func (s *fakeSession) Close()                          { s.closed = true }

type fakeFactory struct {
	sess *fakeSession
	err  error
}

func (f *fakeFactory) NewSession(ctx context.Context) (PageSession, error) {
	return f.sess, f.err
}

func TestAuditorRun(t *testing.T) {
	logger := zap.NewNop()

	t.Run("full pass correlates and enriches", func(t *testing.T) {
		sess := &fakeSession{
			elements: []domain.ElementDescriptor{
				{TagName: domain.TagImg, EffectiveSrc: "http://x/hero.webp", IsPicture: true},
				{TagName: domain.TagImg, EffectiveSrc: "http://x/logo.png"},
				{TagName: domain.TagImg, EffectiveSrc: ""},
			},
			transfers: []domain.RawTransfer{
				{URL: "http://x/hero.webp", MimeType: "image/webp", ResourceSize: 9000},
				{URL: "http://x/logo.png", MimeType: "image/png", ResourceSize: 400},
				{URL: "http://x/app.js", MimeType: "text/javascript", ResourceSize: 100},
			},
			sizes: map[string]domain.IntrinsicSize{"http://x/hero.webp": {Width: 1200, Height: 600}},
		}
		auditor := NewAuditor(&fakeFactory{sess: sess}, 1, logger)

		result, err := auditor.Run(context.Background(), "http://x/")
		require.NoError(t, err)
		require.Len(t, result.Records, 3)
		assert.Equal(t, domain.StatusCompleted, result.Status)

		hero := result.Records[0]
		require.NotNil(t, hero.NetworkRecord)
		assert.True(t, hero.NeedsSizeResolution)
		assert.Equal(t, 1200, hero.ReportedIntrinsicWidth)
		assert.Equal(t, 600, hero.ReportedIntrinsicHeight)

		logo := result.Records[1]
		require.NotNil(t, logo.NetworkRecord)
		assert.False(t, logo.NeedsSizeResolution)

		empty := result.Records[2]
		assert.Nil(t, empty.NetworkRecord)

		assert.True(t, sess.closed)
	})

	t.Run("snapshot failure is fatal with no partial output", func(t *testing.T) {
		sess := &fakeSession{snapshotErr: errors.New("execution context destroyed")}
		auditor := NewAuditor(&fakeFactory{sess: sess}, 1, logger)

		result, err := auditor.Run(context.Background(), "http://x/")
		require.ErrorIs(t, err, ErrSnapshotUnavailable)
		assert.Nil(t, result)
		assert.True(t, sess.closed)
	})

	t.Run("navigation failure is fatal", func(t *testing.T) {
		sess := &fakeSession{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
		auditor := NewAuditor(&fakeFactory{sess: sess}, 1, logger)

		_, err := auditor.Run(context.Background(), "http://nope.invalid/")
		require.ErrorIs(t, err, ErrNavigationFailed)
	})

	t.Run("session open failure propagates", func(t *testing.T) {
		auditor := NewAuditor(&fakeFactory{err: errors.New("browser not running")}, 1, logger)
		_, err := auditor.Run(context.Background(), "http://x/")
		require.Error(t, err)
	})

	t.Run("resolver disconnect fails the pass", func(t *testing.T) {
		sess := &fakeSession{
			elements: []domain.ElementDescriptor{
				{TagName: domain.TagImg, EffectiveSrc: "http://x/hero.webp", IsPicture: true},
			},
			transfers: []domain.RawTransfer{
				{URL: "http://x/hero.webp", MimeType: "image/webp"},
			},
			resolveErr: fmt.Errorf("websocket: close 1006"),
		}
		auditor := NewAuditor(&fakeFactory{sess: sess}, 1, logger)

		result, err := auditor.Run(context.Background(), "http://x/")
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("empty network capture is valid", func(t *testing.T) {
		sess := &fakeSession{
			elements: []domain.ElementDescriptor{
				{TagName: domain.TagImg, EffectiveSrc: "http://x/a.png", IsPicture: true},
			},
		}
		auditor := NewAuditor(&fakeFactory{sess: sess}, 1, logger)

		result, err := auditor.Run(context.Background(), "http://x/")
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Nil(t, result.Records[0].NetworkRecord)
		assert.False(t, result.Records[0].NeedsSizeResolution)
	})
}
