package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
	pkgcron "github.com/tiendreiliass0x/school-management-system/internal/pkg/cron"
)

// registerCronJobs wires the scheduled maintenance jobs.
func (a *App) registerCronJobs() {
	logger := a.logger.Named("cron")

	a.sched.Register(pkgcron.Job{
		Name:        "sweep_expired_tokens",
		Description: "mark expired refresh tokens revoked",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			swept, err := a.sessions.SweepExpired(ctx)
			if err != nil {
				logger.Warn("token sweep failed", zap.Error(err))
				return err
			}
			if swept > 0 {
				logger.Info("token sweep done", zap.Int64("swept", swept))
			}
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "prune_audit_logs",
		Description: "delete audit entries past the retention window",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -a.cfg.Audit.RetentionDays)
			result := a.db.WithContext(ctx).
				Where("created_at < ?", cutoff).
				Delete(&models.AuditLogModel{})
			if result.Error != nil {
				logger.Warn("audit prune failed", zap.Error(result.Error))
				return result.Error
			}
			if result.RowsAffected > 0 {
				logger.Info("audit prune done", zap.Int64("deleted", result.RowsAffected))
			}
			return nil
		},
	})
}
