package service

import (
	"context"
	"errors"

	identityerrors "sessly/internal/identity/errors"
	"sessly/internal/identity/repository"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	"sessly/pkg/model"
)

// LoginResult pairs the issued session token with the profile so the client
// needs no second round trip after login.
type LoginResult struct {
	Token   string        `json:"token"`
	Profile model.Profile `json:"profile"`
}

type IdentityService interface {
	GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error)
	Profile(ctx context.Context, identityID string) (*model.Profile, error)
	AuthorizeAdmin(ctx context.Context, identityID string) error
}

type identityService struct {
	repo     repository.UserRepository
	verifier auth.ExternalVerifier
	tokens   *auth.Tokens
	cfg      *config.Config
}

func NewIdentityService(
	repo repository.UserRepository,
	verifier auth.ExternalVerifier,
	tokens *auth.Tokens,
	cfg *config.Config,
) IdentityService {
	return &identityService{
		repo:     repo,
		verifier: verifier,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// GoogleLogin exchanges a verified Google ID token for a session token,
// creating the user on first login. Invalid external tokens always map to
// Unauthenticated, never to validation errors.
func (s *identityService) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	if idToken == "" {
		return nil, apperrors.Unauthorized("Google ID token is required")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.cfg.Log.Warn("Google token verification failed", "error", err)
		return nil, apperrors.Unauthorized("Invalid Google ID token")
	}

	if identity.Subject == "" || identity.Email == "" {
		return nil, apperrors.Unauthorized("Google token is missing required claims")
	}

	user, err := s.repo.UpsertFromGoogle(ctx, identity)
	if err != nil {
		s.cfg.Log.Error("Failed to upsert user from Google login", "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.cfg.Log.Error("Failed to issue session token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	s.cfg.Log.Info("User signed in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{
		Token:   token,
		Profile: user.ToProfile(),
	}, nil
}

func (s *identityService) Profile(ctx context.Context, identityID string) (*model.Profile, error) {
	user, err := s.findUser(ctx, identityID)
	if err != nil {
		return nil, err
	}

	profile := user.ToProfile()
	return &profile, nil
}

// AuthorizeAdmin is the capability check behind every admin route. It trusts
// the store, not the role claim in the token, so a revoked admin loses access
// as soon as the record changes.
func (s *identityService) AuthorizeAdmin(ctx context.Context, identityID string) error {
	user, err := s.findUser(ctx, identityID)
	if err != nil {
		return err
	}

	if user.Role != model.RoleAdmin {
		return apperrors.Forbidden("Admin access required")
	}

	return nil
}

func (s *identityService) findUser(ctx context.Context, identityID string) (*model.User, error) {
	if identityID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	user, err := s.repo.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) || errors.Is(err, identityerrors.ErrInvalidID) {
			// A token for an unknown identity is an auth failure, not a 404.
			return nil, apperrors.Unauthorized("Unknown identity")
		}
		return nil, apperrors.Internal("Failed to load identity", err)
	}

	return user, nil
}
