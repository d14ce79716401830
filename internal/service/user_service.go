package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

type UserService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewUserService(store domain.Store, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// RegisterStudent creates the account and its student profile.
func (s *UserService) RegisterStudent(ctx context.Context, email string) (*models.User, *models.StudentProfile, error) {
	if email == "" {
		return nil, nil, fmt.Errorf("%w: email is required", domain.ErrPreconditionFailed)
	}
	user := &models.User{Email: email, Role: models.RoleStudent}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	profile := &models.StudentProfile{UserID: user.ID}
	if err := s.store.CreateStudentProfile(ctx, profile); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("student registered")
	return user, profile, nil
}

// RegisterManager creates the account and its manager profile; the
// manager starts unverified and cannot list hostels yet.
func (s *UserService) RegisterManager(ctx context.Context, email, fullName, phone string) (*models.User, *models.ManagerProfile, error) {
	if email == "" {
		return nil, nil, fmt.Errorf("%w: email is required", domain.ErrPreconditionFailed)
	}
	user := &models.User{Email: email, Role: models.RoleManager}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}
	profile := &models.ManagerProfile{UserID: user.ID, FullName: fullName, Phone: phone}
	if err := s.store.CreateManagerProfile(ctx, profile); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("manager registered")
	return user, profile, nil
}

// SelfVerify completes the student's one-shot self-verification, gating
// booking creation.
func (s *UserService) SelfVerify(ctx context.Context, studentUserID, fullName, institute string) (*models.StudentProfile, error) {
	if fullName == "" || institute == "" {
		return nil, fmt.Errorf("%w: full name and institute are required", domain.ErrPreconditionFailed)
	}
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.SelfVerifyStudent(ctx, studentUserID, fullName, institute)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", studentUserID).Msg("student self-verified")
	return profile, nil
}

// TerminateUser is admin-only; ADMIN accounts cannot be terminated and
// the action is audited in the same transaction.
func (s *UserService) TerminateUser(ctx context.Context, adminUserID, targetUserID string) error {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return err
	}
	if err := s.store.TerminateUser(ctx, targetUserID, adminUserID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", targetUserID).Str("by", adminUserID).Msg("user terminated")
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	return s.store.GetStudentProfileByUserID(ctx, userID)
}

func (s *UserService) GetManagerProfile(ctx context.Context, userID string) (*models.ManagerProfile, error) {
	return s.store.GetManagerProfileByUserID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context, adminUserID string, role models.Role) ([]*models.User, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, role)
}

// ListAudit exposes the append-only trail to admins.
func (s *UserService) ListAudit(ctx context.Context, adminUserID string, limit int) ([]*models.AuditLog, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, limit)
}

func (s *UserService) ListAuditByTarget(ctx context.Context, adminUserID, targetType, targetID string) ([]*models.AuditLog, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListAuditByTarget(ctx, targetType, targetID)
}
