package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/observability"
	"github.com/agentrails/agent-wallet/repositories"
	"go.uber.org/zap"
)

// Config holds configuration for the audit Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// Service handles asynchronous audit logging. Writes are buffered and
// flushed by background workers so the transaction pipeline never blocks
// on the audit store; when the buffer fills, events are dropped with a
// warning rather than stalling spend decisions.
type Service struct {
	auditRepo   repositories.AuditRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewService creates a new audit Service instance
func NewService(auditRepo repositories.AuditRepository, metrics *observability.Metrics, logger *zap.Logger, config Config) *Service {
	return &Service{
		auditRepo:   auditRepo,
		metrics:     metrics,
		logger:      logger,
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service, waiting for pending events to
// be flushed up to the timeout
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record queues an audit log entry without blocking. When the buffer is
// full the event is dropped and a warning logged. The lock is held across
// the send so Stop cannot close the channel between the started check and
// the send; the send never blocks, so the lock is released immediately.
func (s *Service) Record(log *models.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.logger.Warn("audit service not started, dropping event",
			zap.String("action", string(log.Action)))
		return
	}

	select {
	case s.eventChan <- log:
		if s.metrics != nil {
			s.metrics.AuditBufferFill.Set(float64(len(s.eventChan)))
		}
	default:
		s.logger.Warn("audit event buffer full, dropping event",
			zap.String("action", string(log.Action)),
			zap.String("wallet_id", log.WalletID.String()))
	}
}

// worker processes events from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.processEvent(log); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(log.Action)),
				zap.String("wallet_id", log.WalletID.String()))
		}
		if s.metrics != nil {
			s.metrics.AuditBufferFill.Set(float64(len(s.eventChan)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent writes a single audit event to the store
func (s *Service) processEvent(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// GetStats returns statistics about the audit service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started,
	}
}
