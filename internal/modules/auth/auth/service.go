package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/password"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/jwt"
)

// dummyHash keeps the bcrypt cost on the unknown-email path so response
// timing does not reveal whether an address is registered.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type Service struct {
	users    UserStore
	signer   *jwt.Signer
	sessions *session.Store
	audit    *audit.Service
	logger   *zap.Logger
}

func NewService(users UserStore, signer *jwt.Signer, sessions *session.Store, auditSvc *audit.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		signer:   signer,
		sessions: sessions,
		audit:    auditSvc,
		logger:   logger,
	}
}

// Login verifies credentials and opens a new session. All credential
// failures collapse into ErrInvalidCredentials; the audit trail keeps the
// real reason.
func (s *Service) Login(ctx context.Context, dto LoginDTO, device session.Device) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(dto.Password))
		s.recordLogin(nil, device, false, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		s.recordLogin(user, device, false, "wrong password")
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		s.recordLogin(user, device, false, "account inactive")
		return nil, ErrInvalidCredentials
	}

	refresh, _, err := s.sessions.Create(ctx, user.ID, device)
	if err != nil {
		return nil, err
	}
	access, err := s.signer.Sign(user.ID, user.Role, schoolOf(user))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, device.IP, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user", user.ID), zap.Error(err))
	}
	user.LastLoginTime = &now
	user.LastLoginIP = device.IP

	s.recordLogin(user, device, true, "")
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
		User:         NewUserView(user),
	}, nil
}

// Refresh rotates the refresh token and mints a fresh access token. The old
// refresh token is dead after this call whether or not the caller saw the
// response.
func (s *Service) Refresh(ctx context.Context, raw string, device session.Device) (*TokenPair, error) {
	next, _, user, err := s.sessions.Rotate(ctx, raw, device)
	if err != nil {
		s.audit.Record(audit.Event{
			Kind:    models.AuditTokenInvalid,
			IP:      device.IP,
			UA:      device.UA,
			Action:  "auth.refresh",
			Success: false,
			Err:     err,
		})
		return nil, err
	}
	access, err := s.signer.Sign(user.ID, user.Role, schoolOf(user))
	if err != nil {
		return nil, err
	}
	s.audit.Record(audit.Event{
		Kind:      models.AuditTokenRefresh,
		ActorID:   user.ID,
		ActorRole: user.Role,
		SchoolID:  schoolOf(user),
		IP:        device.IP,
		UA:        device.UA,
		Action:    "auth.refresh",
		Success:   true,
	})
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: next,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
		User:         NewUserView(user),
	}, nil
}

// Logout revokes the presented refresh token, or every session of its owner
// when all is set. Unknown and already-revoked tokens succeed with a zero
// count so the endpoint stays idempotent and leaks nothing.
func (s *Service) Logout(ctx context.Context, raw string, all bool, device session.Device) (int64, error) {
	if all {
		_, user, err := s.sessions.Verify(ctx, raw)
		if err != nil {
			return 0, nil
		}
		revoked, err := s.sessions.RevokeAll(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		s.audit.Record(audit.Event{
			Kind:      models.AuditLogout,
			ActorID:   user.ID,
			ActorRole: user.Role,
			SchoolID:  schoolOf(user),
			IP:        device.IP,
			UA:        device.UA,
			Action:    "auth.logout",
			Detail:    map[string]any{"all": true, "revoked": revoked},
			Success:   true,
		})
		return revoked, nil
	}

	ok, err := s.sessions.Revoke(ctx, raw)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	s.audit.Record(audit.Event{
		Kind:    models.AuditLogout,
		IP:      device.IP,
		UA:      device.UA,
		Action:  "auth.logout",
		Success: true,
	})
	return 1, nil
}

// ChangePassword re-verifies the current password, enforces the password
// policy on the new one and revokes every open session afterwards.
func (s *Service) ChangePassword(ctx context.Context, userID string, dto ChangePasswordDTO, device session.Device) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.CurrentPassword)); err != nil {
		s.audit.Record(audit.Event{
			Kind:      models.AuditPasswordChange,
			ActorID:   user.ID,
			ActorRole: user.Role,
			SchoolID:  schoolOf(user),
			IP:        device.IP,
			UA:        device.UA,
			Action:    "auth.change_password",
			Success:   false,
			Err:       ErrInvalidCredentials,
		})
		return ErrInvalidCredentials
	}
	if dto.NewPassword == dto.CurrentPassword {
		return &WeakPasswordError{Result: password.Result{
			Violations: []string{"new password must differ from the current password"},
		}}
	}
	if res := password.Validate(dto.NewPassword); !res.OK() {
		return &WeakPasswordError{Result: res}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change",
			zap.String("user", user.ID), zap.Error(err))
	}
	s.audit.Record(audit.Event{
		Kind:      models.AuditPasswordChange,
		ActorID:   user.ID,
		ActorRole: user.Role,
		SchoolID:  schoolOf(user),
		IP:        device.IP,
		UA:        device.UA,
		Action:    "auth.change_password",
		Success:   true,
	})
	return nil
}

// Register creates the first platform administrator on an empty deployment.
// Once any user exists the endpoint is closed; further accounts are created
// through the admin surface.
func (s *Service) Register(ctx context.Context, dto RegisterDTO, device session.Device) (*UserView, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrBootstrapDone
	}
	if res := password.Validate(dto.Password); !res.OK() {
		return nil, &WeakPasswordError{Result: res}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.UserModel{
		Email:    dto.Email,
		Name:     dto.Name,
		Password: string(hash),
		Role:     models.RolePlatformAdmin,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Record(audit.Event{
		Kind:      models.AuditDataMutation,
		ActorID:   user.ID,
		ActorRole: user.Role,
		IP:        device.IP,
		UA:        device.UA,
		Action:    "auth.register",
		Target:    user.ID,
		Detail:    map[string]any{"role": string(user.Role)},
		Success:   true,
	})
	view := NewUserView(user)
	return &view, nil
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, jwt.ErrInvalidToken
	}
	view := NewUserView(user)
	return &view, nil
}

// Sessions lists the caller's active refresh tokens, oldest first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]SessionView, error) {
	records, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(records))
	for i := range records {
		views = append(views, NewSessionView(&records[i]))
	}
	return views, nil
}

func (s *Service) recordLogin(user *models.UserModel, device session.Device, success bool, reason string) {
	ev := audit.Event{
		Kind:    models.AuditLoginSuccess,
		IP:      device.IP,
		UA:      device.UA,
		Action:  "auth.login",
		Success: success,
	}
	if !success {
		ev.Kind = models.AuditLoginFailure
		ev.Err = errors.New(reason)
	}
	if user != nil {
		ev.ActorID = user.ID
		ev.ActorRole = user.Role
		ev.SchoolID = schoolOf(user)
	}
	s.audit.Record(ev)
}

func schoolOf(user *models.UserModel) string {
	if user.SchoolID == nil {
		return ""
	}
	return *user.SchoolID
}
