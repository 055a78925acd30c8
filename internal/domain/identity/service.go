package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carewave/hms/internal/platform/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RoleNurse: true, RolePharmacist: true,
	RoleReceptionist: true, RoleBilling: true, RoleLabTech: true,
}

type Service struct {
	users  UserRepository
	jwtCfg auth.JWTConfig
}

func NewService(users UserRepository, jwtCfg auth.JWTConfig) *Service {
	return &Service{users: users, jwtCfg: jwtCfg}
}

// Register creates a staff account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if len(req.Roles) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	for _, role := range req.Roles {
		if !validRoles[role] {
			return nil, fmt.Errorf("invalid role: %s", role)
		}
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email %s is already registered", req.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Roles:        req.Roles,
		Phone:        req.Phone,
		Department:   req.Department,
		Designation:  req.Designation,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed JWT. Lookup failures and
// password mismatches return the same error so callers cannot probe for
// registered emails.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	token, err := auth.IssueToken(s.jwtCfg, u.ID.String(), u.Name, u.Roles, auth.DefaultTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	_ = s.users.RecordLogin(ctx, u.ID)

	return &LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.DefaultTokenTTL),
		User:      u,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, u *User) error {
	for _, role := range u.Roles {
		if !validRoles[role] {
			return fmt.Errorf("invalid role: %s", role)
		}
	}
	return s.users.Update(ctx, u)
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if len(req.NewPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// Deactivate disables login for an account. Accounts are never deleted so
// audit history stays attributable.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, false)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, true)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !validRoles[role] {
		return nil, 0, fmt.Errorf("invalid role: %s", role)
	}
	return s.users.List(ctx, role, limit, offset)
}
