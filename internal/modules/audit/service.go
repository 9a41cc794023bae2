package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const writeTimeout = 5 * time.Second

// Writer persists one audit entry.
type Writer interface {
	Write(ctx context.Context, entry *models.AuditLogModel) error
}

// GormWriter appends audit entries to the audit_logs table.
type GormWriter struct {
	db *gorm.DB
}

func NewGormWriter(db *gorm.DB) *GormWriter { return &GormWriter{db: db} }

func (w *GormWriter) Write(ctx context.Context, entry *models.AuditLogModel) error {
	return w.db.WithContext(ctx).Create(entry).Error
}

// Service is the append-only security audit sink. Recording is fire-and-
// forget: entries go through a buffered channel into a single writer
// goroutine, and neither a full buffer nor a failed write ever propagates to
// the request that triggered the event.
type Service struct {
	writer Writer
	logger *zap.Logger

	events chan *models.AuditLogModel
	done   chan struct{}
	once   sync.Once
}

// NewService starts the sink's writer goroutine.
func NewService(writer Writer, logger *zap.Logger, bufferSize int) *Service {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &Service{
		writer: writer,
		logger: logger.Named("AuditService"),
		events: make(chan *models.AuditLogModel, bufferSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues a security event. Never blocks; a full buffer drops the
// event with a log warning (observability degrades, requests do not).
func (s *Service) Record(ev Event) {
	entry := &models.AuditLogModel{
		Kind:      ev.Kind,
		Severity:  SeverityFor(ev.Kind, ev.Success),
		ActorID:   ev.ActorID,
		ActorRole: ev.ActorRole,
		SchoolID:  ev.SchoolID,
		IP:        ev.IP,
		UA:        ev.UA,
		Action:    ev.Action,
		Target:    ev.Target,
		Detail:    redactDetail(ev.Detail),
		Success:   ev.Success,
	}
	if ev.Err != nil {
		entry.Error = ev.Err.Error()
	}

	select {
	case s.events <- entry:
	default:
		s.logger.Warn("audit buffer full, event dropped",
			zap.String("kind", string(ev.Kind)),
			zap.String("actor", ev.ActorID),
		)
	}
}

// Close drains pending events and stops the writer goroutine.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.events)
		<-s.done
	})
}

func (s *Service) run() {
	defer close(s.done)
	for entry := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.writer.Write(ctx, entry)
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("audit write failed",
				zap.String("kind", string(entry.Kind)),
				zap.Error(err),
			)
		}
	}
}
