package service

import (
	"context"
	"errors"
	"testing"
	"time"

	identityerrors "sessly/internal/identity/errors"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/logger"
	"sessly/pkg/model"
)

type mockUserRepository struct {
	upsertFromGoogleFn func(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error)
	findByIDFn         func(ctx context.Context, id string) (*model.User, error)
	extendPremiumFn    func(ctx context.Context, id string, plan string, expiry time.Time) error
	countCustomersFn   func(ctx context.Context) (int64, error)
}

func (m *mockUserRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockUserRepository) UpsertFromGoogle(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error) {
	return m.upsertFromGoogleFn(ctx, identity)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepository) ExtendPremium(ctx context.Context, id string, plan string, expiry time.Time) error {
	return m.extendPremiumFn(ctx, id, plan, expiry)
}

func (m *mockUserRepository) CountCustomers(ctx context.Context) (int64, error) {
	return m.countCustomersFn(ctx)
}

type mockVerifier struct {
	verifyFn func(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
	return m.verifyFn(ctx, rawToken)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}),
	}
}

func testTokens() *auth.Tokens {
	return auth.NewTokens("test-secret-key-at-least-16", time.Hour)
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
}

func TestGoogleLogin_InvalidExternalToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
			return nil, errors.New("token expired")
		},
	}

	svc := NewIdentityService(&mockUserRepository{}, verifier, testTokens(), testConfig())

	_, err := svc.GoogleLogin(context.Background(), "bad-token")
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestGoogleLogin_EmptyToken(t *testing.T) {
	svc := NewIdentityService(&mockUserRepository{}, &mockVerifier{}, testTokens(), testConfig())

	_, err := svc.GoogleLogin(context.Background(), "")
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestGoogleLogin_FirstLoginCreatesCustomer(t *testing.T) {
	var upserted *auth.ExternalIdentity
	repo := &mockUserRepository{
		upsertFromGoogleFn: func(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error) {
			upserted = identity
			return &model.User{
				ID:          "665f1f77bcf86cd799439011",
				Name:        identity.Name,
				Email:       identity.Email,
				GoogleID:    identity.Subject,
				Role:        model.RoleCustomer,
				PremiumPlan: model.PremiumNone,
			}, nil
		},
	}
	verifier := &mockVerifier{
		verifyFn: func(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
			return &auth.ExternalIdentity{Subject: "google-sub-1", Email: "alice@example.com", Name: "Alice"}, nil
		},
	}

	tokens := testTokens()
	svc := NewIdentityService(repo, verifier, tokens, testConfig())

	result, err := svc.GoogleLogin(context.Background(), "valid-google-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if upserted == nil || upserted.Subject != "google-sub-1" {
		t.Fatal("expected upsert with the verified Google subject")
	}
	if result.Profile.Role != model.RoleCustomer {
		t.Errorf("expected role customer, got %s", result.Profile.Role)
	}
	if result.Profile.PremiumPlan != model.PremiumNone {
		t.Errorf("expected premium plan none, got %s", result.Profile.PremiumPlan)
	}

	claims, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != "665f1f77bcf86cd799439011" {
		t.Errorf("expected token subject to be the user id, got %s", claims.Subject)
	}
}

func TestGoogleLogin_MissingClaims(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
			return &auth.ExternalIdentity{Subject: "google-sub-1"}, nil
		},
	}

	svc := NewIdentityService(&mockUserRepository{}, verifier, testTokens(), testConfig())

	_, err := svc.GoogleLogin(context.Background(), "token-without-email")
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestProfile_UnknownIdentity(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, identityerrors.ErrNotFound
		},
	}

	svc := NewIdentityService(repo, &mockVerifier{}, testTokens(), testConfig())

	_, err := svc.Profile(context.Background(), "665f1f77bcf86cd799439011")
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestProfile_HidesGoogleSubject(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{
				ID:          id,
				Name:        "Alice",
				Email:       "alice@example.com",
				GoogleID:    "google-sub-1",
				Role:        model.RoleCustomer,
				PremiumPlan: model.PremiumGold,
			}, nil
		},
	}

	svc := NewIdentityService(repo, &mockVerifier{}, testTokens(), testConfig())

	profile, err := svc.Profile(context.Background(), "665f1f77bcf86cd799439011")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Email != "alice@example.com" || profile.PremiumPlan != model.PremiumGold {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		repoErr  error
		wantCode string
	}{
		{
			name: "admin passes",
			user: &model.User{ID: "1", Role: model.RoleAdmin},
		},
		{
			name:     "customer is forbidden",
			user:     &model.User{ID: "1", Role: model.RoleCustomer},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name:     "unknown identity is unauthorized",
			repoErr:  identityerrors.ErrNotFound,
			wantCode: apperrors.CodeUnauthorized,
		},
		{
			name:     "store failure is internal",
			repoErr:  errors.New("connection reset"),
			wantCode: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepository{
				findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return tt.user, nil
				},
			}

			svc := NewIdentityService(repo, &mockVerifier{}, testTokens(), testConfig())
			err := svc.AuthorizeAdmin(context.Background(), "665f1f77bcf86cd799439011")

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectCode(t, err, tt.wantCode)
		})
	}
}
