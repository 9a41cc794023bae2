package session

import (
	"context"
	"errors"
	"time"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the MySQL-backed Repo. Conditional updates are single
// statements whose WHERE clause re-checks the revoked/expiry state, so the
// row's validity cannot change between check and act.
type GormRepo struct {
	db *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo { return &GormRepo{db: db} }

// Admit serializes session admission per user: the locking read holds the
// user's live rows until commit, so bursts of concurrent logins queue up and
// each one sees the evictions of the previous.
func (r *GormRepo) Admit(ctx context.Context, rec *models.RefreshTokenModel, max int, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active []models.RefreshTokenModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND revoked = ? AND expires_at > ?", rec.UserID, false, now).
			Order("created_at ASC").
			Find(&active).Error
		if err != nil {
			return err
		}
		if surplus := len(active) - max + 1; surplus > 0 {
			ids := make([]string, 0, surplus)
			for _, old := range active[:surplus] {
				ids = append(ids, old.ID)
			}
			err := tx.Model(&models.RefreshTokenModel{}).
				Where("id IN ?", ids).
				Update("revoked", true).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(rec).Error
	})
}

func (r *GormRepo) FindByHash(ctx context.Context, hash string) (*models.RefreshTokenModel, error) {
	var rec models.RefreshTokenModel
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *GormRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshTokenModel, error) {
	var recs []models.RefreshTokenModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

func (r *GormRepo) TouchIfActive(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("id = ? AND revoked = ? AND expires_at > ?", id, false, now).
		Update("last_used_at", now)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) RevokeByID(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) Rotate(ctx context.Context, oldID string, now time.Time, next *models.RefreshTokenModel) (bool, error) {
	rotated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshTokenModel{}).
			Where("id = ? AND revoked = ? AND expires_at > ?", oldID, false, now).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race or the token died meanwhile; nothing to insert.
			return nil
		}
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		rotated = true
		return nil
	})
	return rotated, err
}

func (r *GormRepo) RevokeAllByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshTokenModel{}).
		Where("revoked = ? AND expires_at <= ?", false, now).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// GormUserLoader resolves session owners from the users table.
type GormUserLoader struct {
	db *gorm.DB
}

func NewGormUserLoader(db *gorm.DB) *GormUserLoader { return &GormUserLoader{db: db} }

func (l *GormUserLoader) LoadUser(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	err := l.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
