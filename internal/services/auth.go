package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/dimitrije/pod-console/internal/models"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/google/uuid"
)

var ErrMissingCredentials = errors.New("email and password are required")

// AuthService signs admins in upstream and hands out console tokens for the
// resulting sessions.
type AuthService struct {
	sessions *session.Manager
	jwt      *JWTService
	client   *upstream.Client
}

func NewAuthService(sessions *session.Manager, jwt *JWTService, client *upstream.Client) *AuthService {
	return &AuthService{sessions: sessions, jwt: jwt, client: client}
}

type LoginResult struct {
	SessionID uuid.UUID
	Token     *SessionToken
	Admin     models.Admin
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("", "%s", ErrMissingCredentials.Error())
	}

	active, err := s.sessions.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(active)
}

func (s *AuthService) issue(active *session.Active) (*LoginResult, error) {
	record := active.Record()
	tok, err := s.jwt.GenerateToken(record.ID, record.AdminID, record.Email, record.Admin.IsSuperAdmin(), record.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &LoginResult{SessionID: record.ID, Token: tok, Admin: record.Admin}, nil
}

// Session resolves a console session id to the live session.
func (s *AuthService) Session(ctx context.Context, id uuid.UUID) (*session.Active, error) {
	return s.sessions.Get(ctx, id)
}

func (s *AuthService) Actor(ctx context.Context, id uuid.UUID) (session.Actor, error) {
	active, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return active, nil
}

func (s *AuthService) Logout(ctx context.Context, id uuid.UUID) error {
	active, err := s.sessions.Get(ctx, id)
	if err != nil {
		if apperr.IsAuth(err) {
			return nil
		}
		return err
	}
	return s.sessions.Logout(ctx, active)
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	active, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.sessions.Me(ctx, active)
}

// Refresh renews the upstream token now and issues a fresh console token.
func (s *AuthService) Refresh(ctx context.Context, id uuid.UUID) (*LoginResult, error) {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return nil, err
	}
	active, err := s.sessions.Refresh(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(active)
}

// SetupPassword completes an invited admin's account.
func (s *AuthService) SetupPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return apperr.Validation("token", "setup token is required")
	}
	if len(password) < 8 {
		return apperr.Validation("password", "must be at least 8 characters")
	}
	return s.client.SetupPassword(ctx, token, password)
}
