package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

func (s *Service) CreateUser(ctx context.Context, token string, req domain.UserCreateRequest) (*domain.User, error) {
	if _, err := s.sessions.RequireRole(token, domain.RoleAdmin); err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.TenantID == "" || req.BranchID == "" || req.Username == "" || req.Name == "" {
		return nil, store.ErrValidation
	}
	if !req.Role.Valid() {
		return nil, store.ErrValidation
	}
	if len(req.Password) < 6 {
		return nil, store.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.CreateUser(ctx, domain.User{
		TenantID:     req.TenantID,
		BranchID:     req.BranchID,
		Name:         req.Name,
		Username:     req.Username,
		Role:         req.Role,
		Active:       req.Active,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) UpdateUser(ctx context.Context, token, userID string, req domain.UserUpdateRequest) (*domain.User, error) {
	if _, err := s.sessions.RequireRole(token, domain.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, store.ErrValidation
		}
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.NewPassword != nil {
		if len(*req.NewPassword) < 6 {
			return nil, store.ErrValidation
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if user.Username == "" || user.Name == "" {
		return nil, store.ErrValidation
	}
	user.UpdatedAt = time.Now().UTC()

	return s.repo.UpdateUser(ctx, *user)
}

func (s *Service) DeleteUser(ctx context.Context, token, userID string) error {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return err
	}
	// Removing yourself would strand the branch without its admin mid-shift.
	if sess.UserID == userID {
		return store.ErrValidation
	}
	return s.repo.DeleteUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	sess, err := s.sessions.RequireRole(token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx, sess.TenantID, sess.BranchID)
}
