// Package service runs the audit worker pool: it dedups incoming page
// URLs, executes audit passes, and persists the outcome.
package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"imgaudit/internal/audit"
	"imgaudit/internal/config"
	"imgaudit/internal/domain"
	"imgaudit/internal/monitoring"
	"imgaudit/internal/storage"
)

// Service manages the worker pool and audit tasks.
type Service struct {
	config     *config.Config
	auditor    *audit.Auditor
	redisStore *storage.RedisStore
	pgStore    *storage.PostgresStore
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	taskQueue  chan domain.AuditTask
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

func NewService(cfg *config.Config, a *audit.Auditor, rs *storage.RedisStore, ps *storage.PostgresStore, m *monitoring.Metrics, l *zap.Logger) *Service {
	a.SetResolutionObserver(m.IncSizeResolutions)
	return &Service{
		config:     cfg,
		auditor:    a,
		redisStore: rs,
		pgStore:    ps,
		metrics:    m,
		logger:     l,
		taskQueue:  make(chan domain.AuditTask, cfg.AuditWorkers*2),
		stopChan:   make(chan struct{}),
	}
}

func (s *Service) Start() {
	for i := 0; i < s.config.AuditWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *Service) Stop() {
	close(s.stopChan)
	close(s.taskQueue)
	s.wg.Wait()
}

func (s *Service) Submit(task domain.AuditTask) {
	s.taskQueue <- task
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return // Channel closed
			}
			s.processTask(task)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) processTask(task domain.AuditTask) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.AuditTimeout+10)*time.Second)
	defer cancel()

	if !task.ForceAudit {
		recent, err := s.redisStore.IsRecentlyAudited(ctx, task.URL)
		if err != nil {
			s.logger.Error("failed to check redis for audited status", zap.String("url", task.URL), zap.Error(err))
		}
		if recent {
			s.logger.Info("skipping recently audited URL", zap.String("url", task.URL))
			return
		}
	}

	// Mark as processing in DB
	processing := &domain.AuditResult{URL: task.URL, Status: domain.StatusProcessing, AuditedAt: time.Now()}
	if err := s.pgStore.SavePass(ctx, processing); err != nil {
		s.logger.Error("failed to mark URL as processing", zap.String("url", task.URL), zap.Error(err))
	}

	startTime := time.Now()
	result, err := s.auditor.Run(ctx, task.URL)
	duration := time.Since(startTime)

	if err != nil {
		s.metrics.ObservePass("failed", hostOf(task.URL), duration.Seconds())
		s.handleFailure(ctx, task.URL, err)
		return
	}

	s.metrics.ObservePass("completed", hostOf(task.URL), duration.Seconds())
	s.metrics.ObserveRecords(len(result.Records))

	if err := s.pgStore.SavePass(ctx, result); err != nil {
		s.logger.Error("error saving audit result", zap.String("url", task.URL), zap.Error(err))
		s.metrics.IncErrorsTotal("db_save_failed")
	} else {
		s.logger.Info("successfully audited and saved",
			zap.String("url", task.URL),
			zap.Int("records", len(result.Records)),
			zap.Int64("duration_ms", duration.Milliseconds()))
		ttl := time.Duration(s.config.DeduplicationDays) * 24 * time.Hour
		s.redisStore.MarkAudited(ctx, task.URL, ttl)
	}
}

func (s *Service) handleFailure(ctx context.Context, pageURL string, auditErr error) {
	s.logger.Warn("failed to audit", zap.String("url", pageURL), zap.Error(auditErr))
	s.metrics.IncErrorsTotal("pass_failed")

	retryCount, err := s.redisStore.IncrementRetryCount(ctx, pageURL)
	if err != nil {
		s.logger.Error("failed to increment retry count", zap.String("url", pageURL), zap.Error(err))
		return
	}

	if retryCount >= int64(s.config.MaxRetries) {
		s.logger.Error("max retries reached, marking as failed", zap.String("url", pageURL))
		failed := &domain.AuditResult{
			URL:        pageURL,
			Status:     domain.StatusFailed,
			FailReason: auditErr.Error(),
			AuditedAt:  time.Now(),
		}
		if err := s.pgStore.SavePass(ctx, failed); err != nil {
			s.logger.Error("failed to mark URL as failed in db", zap.String("url", pageURL), zap.Error(err))
		}
	} else {
		s.logger.Info("URL will be retried later", zap.String("url", pageURL), zap.Int64("attempt", retryCount))
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
