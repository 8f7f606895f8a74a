package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/gatehouse/gatepass/internal/service"
	"github.com/gatehouse/gatepass/pkg/auth"
	"github.com/gatehouse/gatepass/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
	}
}

func setupAuthService() (service.AuthService, *mockUserRepo, *mockTokenRepo) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	return service.NewAuthService(userRepo, tokenRepo, testConfig()), userRepo, tokenRepo
}

func TestRegister_AlwaysCreatesGuest(t *testing.T) {
	svc, _, _ := setupAuthService()

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.User.Role != domain.RoleGuest {
		t.Fatalf("Expected role guest, got %s", resp.User.Role)
	}
	if resp.User.Email != "alice@example.com" {
		t.Fatalf("Expected lowercased email, got %s", resp.User.Email)
	}
	if resp.Token == "" {
		t.Fatal("Expected a session token")
	}

	claims, err := auth.Parse(resp.Token, "test-secret")
	if err != nil {
		t.Fatalf("Failed to parse issued token: %v", err)
	}
	if claims.Role != "guest" {
		t.Fatalf("Expected guest claims, got %s", claims.Role)
	}
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	svc, _, _ := setupAuthService()
	ctx := context.Background()

	req := domain.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"}
	if _, err := svc.Register(ctx, &req); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}

	dup := domain.RegisterRequest{Name: "Other Alice", Email: "ALICE@example.com", Password: "different1"}
	_, err := svc.Register(ctx, &dup)
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("Expected conflict, got %v", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	svc, _, _ := setupAuthService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.RegisterRequest
	}{
		{"missing name", domain.RegisterRequest{Email: "a@b.co", Password: "secret123"}},
		{"bad email", domain.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", domain.RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestLogin_WrongCredentials_GenericMessage(t *testing.T) {
	svc, userRepo, _ := setupAuthService()
	ctx := context.Background()

	hash, _ := argon2id.CreateHash("correct-password", argon2id.DefaultParams)
	u := userRepo.seed("Bob", "bob@example.com", domain.RoleGuest)
	u.PasswordHash = hash

	// Unknown address and wrong password must be indistinguishable.
	_, unknownErr := svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	_, wrongPassErr := svc.Login(ctx, &domain.LoginRequest{Email: "bob@example.com", Password: "wrong"})

	for _, err := range []error{unknownErr, wrongPassErr} {
		if domain.KindOf(err) != domain.KindAuthentication {
			t.Fatalf("Expected authentication error, got %v", err)
		}
		if domain.PublicMessage(err) != "invalid email or password" {
			t.Fatalf("Expected generic message, got %q", domain.PublicMessage(err))
		}
	}
}

func TestLogin_Success_TouchesLastLogin(t *testing.T) {
	svc, userRepo, _ := setupAuthService()

	hash, _ := argon2id.CreateHash("correct-password", argon2id.DefaultParams)
	u := userRepo.seed("Bob", "bob@example.com", domain.RoleHost)
	u.PasswordHash = hash

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "bob@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.User.Role != domain.RoleHost {
		t.Fatalf("Expected host role, got %s", resp.User.Role)
	}
	if len(userRepo.touched) != 1 || userRepo.touched[0] != u.ID {
		t.Fatal("Expected last-login touch for the user")
	}
}

func TestLogout_BlacklistsToken(t *testing.T) {
	svc, _, tokenRepo := setupAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, resp.Token); err != nil {
		t.Fatalf("Expected token to authenticate before logout, got %v", err)
	}

	if err := svc.Logout(ctx, resp.Token, resp.User.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, ok := tokenRepo.blacklisted[resp.Token]; !ok {
		t.Fatal("Expected token in blacklist")
	}

	_, err = svc.Authenticate(ctx, resp.Token)
	if domain.KindOf(err) != domain.KindAuthentication {
		t.Fatalf("Expected authentication error after logout, got %v", err)
	}
}

func TestAuthenticate_RoleComesFromStore(t *testing.T) {
	svc, _, _ := setupAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	// Promote after the token was minted. The old token must carry the
	// new role on the next request.
	if _, err := svc.UpdateUserRole(ctx, resp.User.ID, "host"); err != nil {
		t.Fatalf("Role update failed: %v", err)
	}

	user, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Expected authentication to succeed, got %v", err)
	}
	if user.Role != domain.RoleHost {
		t.Fatalf("Expected stored role host, got %s", user.Role)
	}
}

func TestAuthenticate_RejectsGarbageToken(t *testing.T) {
	svc, _, _ := setupAuthService()

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	if domain.KindOf(err) != domain.KindAuthentication {
		t.Fatalf("Expected authentication error, got %v", err)
	}
}

func TestUpdateUserRole_Validation(t *testing.T) {
	svc, userRepo, _ := setupAuthService()
	ctx := context.Background()

	u := userRepo.seed("Carol", "carol@example.com", domain.RoleGuest)

	_, err := svc.UpdateUserRole(ctx, u.ID, "superuser")
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("Expected validation error for unknown role, got %v", err)
	}

	_, err = svc.UpdateUserRole(ctx, 9999, "host")
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("Expected not found for unknown user, got %v", err)
	}

	updated, err := svc.UpdateUserRole(ctx, u.ID, "security")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Role != domain.RoleSecurity {
		t.Fatalf("Expected security role, got %s", updated.Role)
	}
}
