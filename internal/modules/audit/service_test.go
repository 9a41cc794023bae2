package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu      sync.Mutex
	entries []models.AuditLogModel
	fail    bool
	block   chan struct{}
}

func (w *fakeWriter) Write(_ context.Context, entry *models.AuditLogModel) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("sink unavailable")
	}
	w.entries = append(w.entries, *entry)
	return nil
}

func (w *fakeWriter) all() []models.AuditLogModel {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.AuditLogModel(nil), w.entries...)
}

func TestRecordPersistsEntry(t *testing.T) {
	writer := &fakeWriter{}
	svc := audit.NewService(writer, zap.NewNop(), 8)

	svc.Record(audit.Event{
		Kind:    models.AuditLoginFailure,
		ActorID: "u-1",
		IP:      "10.0.0.1",
		Action:  "login",
		Success: false,
		Err:     errors.New("invalid credentials"),
	})
	svc.Close()

	entries := writer.all()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditLoginFailure, entries[0].Kind)
	assert.Equal(t, models.SeverityHigh, entries[0].Severity)
	assert.Equal(t, "invalid credentials", entries[0].Error)
	assert.False(t, entries[0].Success)
}

func TestRecordRedactsSecrets(t *testing.T) {
	writer := &fakeWriter{}
	svc := audit.NewService(writer, zap.NewNop(), 8)

	svc.Record(audit.Event{
		Kind:    models.AuditPasswordChange,
		ActorID: "u-1",
		Success: true,
		Detail: map[string]any{
			"password":      "hunter2hunter2!A",
			"refresh_token": "deadbeef",
			"sessions":      3,
		},
	})
	svc.Close()

	entries := writer.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "[redacted]", entries[0].Detail["password"])
	assert.Equal(t, "[redacted]", entries[0].Detail["refresh_token"])
	assert.Equal(t, 3, entries[0].Detail["sessions"])
}

func TestRecordNeverBlocksWhenBufferFull(t *testing.T) {
	writer := &fakeWriter{block: make(chan struct{})}
	svc := audit.NewService(writer, zap.NewNop(), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			svc.Record(audit.Event{Kind: models.AuditLoginSuccess, Success: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
	close(writer.block)
	svc.Close()
}

func TestWriteFailureDoesNotPropagate(t *testing.T) {
	writer := &fakeWriter{fail: true}
	svc := audit.NewService(writer, zap.NewNop(), 8)

	// Must not panic or surface the error anywhere.
	svc.Record(audit.Event{Kind: models.AuditLogout, Success: true})
	svc.Close()
	assert.Empty(t, writer.all())
}

func TestSeverityRules(t *testing.T) {
	tests := []struct {
		kind     models.AuditEventKind
		success  bool
		expected models.AuditSeverity
	}{
		{models.AuditLoginFailure, false, models.SeverityHigh},
		{models.AuditTokenInvalid, false, models.SeverityHigh},
		{models.AuditAccessDenied, false, models.SeverityHigh},
		{models.AuditSuspiciousAction, false, models.SeverityCritical},
		{models.AuditLoginSuccess, true, models.SeverityLow},
		{models.AuditLogout, true, models.SeverityLow},
		{models.AuditTokenRefresh, true, models.SeverityLow},
		{models.AuditTokenRefresh, false, models.SeverityHigh},
		{models.AuditPasswordChange, true, models.SeverityMedium},
		{models.AuditRateLimitExceeded, false, models.SeverityMedium},
		{models.AuditDataMutation, true, models.SeverityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, audit.SeverityFor(tt.kind, tt.success),
			"kind=%s success=%v", tt.kind, tt.success)
	}
}
