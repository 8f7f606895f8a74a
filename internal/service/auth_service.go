package service

import (
	"fmt"

	"context"

	"github.com/alexedwards/argon2id"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/repository"
	"github.com/gatehouse/gatepass/pkg/auth"
	"github.com/gatehouse/gatepass/pkg/config"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, token string, userID int64) error
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, userID int64, role string) (*domain.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Register creates an account. New accounts are always guests; only an
// admin can promote a role afterwards.
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to check existing user")
	}
	if existing != nil {
		return nil, domain.Conflictf("user with this email already exists")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to hash password")
	}

	user, err := s.userRepo.Create(ctx, req.Name, req.Email, passwordHash, req.Phone, domain.RoleGuest)
	if err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, domain.Conflictf("user with this email already exists")
		}
		return nil, domain.Unexpected(err, "failed to create user")
	}

	return s.issueSession(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to find user")
	}
	if user == nil {
		return nil, domain.Authenticationf("invalid email or password")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to verify password")
	}
	if !valid {
		return nil, domain.Authenticationf("invalid email or password")
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, domain.Unexpected(err, "failed to update last login")
	}

	return s.issueSession(user)
}

func (s *authService) Logout(ctx context.Context, token string, userID int64) error {
	if err := s.tokenRepo.Blacklist(ctx, token, userID); err != nil {
		return domain.Unexpected(err, "failed to invalidate token")
	}
	return nil
}

// Authenticate trusts a bearer token only after the blacklist says it is
// still live, the signature and expiry check out, and the subject still
// exists. The role comes from the store, not the token, so an admin role
// change takes effect on the next request.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	blacklisted, err := s.tokenRepo.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to check token blacklist")
	}
	if blacklisted {
		return nil, domain.Authenticationf("token has been invalidated")
	}

	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.Authenticationf("invalid or expired token")
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to load user")
	}
	if user == nil {
		return nil, domain.Authenticationf("user no longer exists")
	}

	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list users")
	}
	return users, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, userID int64, role string) (*domain.User, error) {
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, domain.Validationf("invalid role: must be one of guest, host, security, admin")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to find user")
	}
	if user == nil {
		return nil, domain.NotFoundf("user not found")
	}

	updated, err := s.userRepo.UpdateRole(ctx, userID, parsed)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to update user role")
	}
	if updated == nil {
		return nil, domain.NotFoundf("user not found")
	}
	return updated, nil
}

func (s *authService) issueSession(user *domain.User) (*domain.LoginResponse, error) {
	token, err := auth.NewAccessToken(user.ID, user.Email, string(user.Role), s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return nil, domain.Unexpected(fmt.Errorf("sign token: %w", err), "failed to create access token")
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.TokenTTL.Seconds()),
		User:      user.ToUserInfo(),
	}, nil
}
