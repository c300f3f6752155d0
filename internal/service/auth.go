package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fogonpos/backend/internal/domain"
	"fogonpos/backend/internal/store"
)

// ErrBadCredentials deliberately does not say whether the username or the
// password was wrong.
var ErrBadCredentials = errors.New("invalid credentials")

type LoginResult struct {
	Session domain.Session `json:"session"`
	User    domain.User    `json:"user"`
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.TenantID == "" || req.BranchID == "" || req.Username == "" || req.Password == "" {
		return nil, store.ErrValidation
	}

	user, err := s.repo.FindActiveUser(ctx, req.TenantID, req.BranchID, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrBadCredentials
	}

	sess := s.sessions.Create(*user)
	s.logger.Info("login",
		zap.String("tenant_id", user.TenantID),
		zap.String("branch_id", user.BranchID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return &LoginResult{Session: sess, User: *user}, nil
}

// Logout revokes the token. An unknown or already-expired token succeeds too;
// the caller's goal state is "token no longer valid" either way.
func (s *Service) Logout(_ context.Context, token string) {
	s.sessions.Delete(token)
}

func (s *Service) CurrentSession(token string) (domain.Session, error) {
	return s.sessions.Require(token)
}

// EnsureDefaultAdmin seeds a first ADMIN account when the user table is
// empty, so a fresh install can be logged into at all. The password comes
// from BOOTSTRAP_ADMIN_PASSWORD; a generated one is logged once when unset.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, tenantID, branchID string) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	generated := password == ""
	if generated {
		password = uuid.NewString()[:13]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.repo.CreateUser(ctx, domain.User{
		TenantID:     tenantID,
		BranchID:     branchID,
		Name:         "Administrador",
		Username:     "admin",
		Role:         domain.RoleAdmin,
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Lost the race against a concurrent bootstrap; the admin exists.
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return err
	}

	if generated {
		fmt.Fprintf(os.Stderr, "bootstrap admin created: username=admin password=%s\n", password)
	}
	s.logger.Info("bootstrap admin created", zap.String("tenant_id", tenantID), zap.String("branch_id", branchID))
	return nil
}
