package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/internal/platform/kv"
)

// sessionStore is the subset of the key-value store used for refresh
// tokens. Keys are refresh:<sha256 of token> so a raw token never touches
// the store.
type sessionStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	users    Repository
	issuer   *auth.TokenIssuer
	sessions sessionStore
	log      zerolog.Logger
}

func NewService(users Repository, issuer *auth.TokenIssuer, sessions sessionStore, log zerolog.Logger) *Service {
	return &Service{users: users, issuer: issuer, sessions: sessions, log: log}
}

type RegisterInput struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Speciality *string `json:"speciality,omitempty"`
	Address    *string `json:"address,omitempty"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Role == "" {
		in.Role = auth.RolePatient
	}
	if !auth.ValidRoles[in.Role] || in.Role == auth.RoleAdmin {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Name:         in.Name,
		Phone:        in.Phone,
		Speciality:   in.Speciality,
		Address:      in.Address,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return s.startSession(ctx, u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Same failure for unknown email and bad password.
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return s.startSession(ctx, u)
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is not rotated; it expires on its own schedule.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	hash := auth.HashToken(refreshToken)

	userID, err := s.sessions.Get(ctx, refreshKey(hash))
	if err != nil {
		if err == kv.ErrNotFound {
			return nil, ErrBadRefresh
		}
		return nil, err
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrBadRefresh
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrBadRefresh
	}
	// The row hash is cleared on logout; a stale store entry must not
	// resurrect the session.
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != hash {
		return nil, ErrBadRefresh
	}

	access, err := s.issuer.IssueAccessToken(u.ID.String(), u.Role, u.Name)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, AccessToken: access}, nil
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.RefreshTokenHash != nil {
		if err := s.sessions.Delete(ctx, refreshKey(*u.RefreshTokenHash)); err != nil {
			s.log.Warn().Err(err).Msg("refresh token store delete failed")
		}
	}
	return s.users.SetRefreshTokenHash(ctx, userID, nil)
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

type ProfileUpdate struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	Speciality *string `json:"speciality,omitempty"`
	Address    *string `json:"address,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("name must not be empty")
		}
		u.Name = *in.Name
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.AvatarURL != nil {
		u.AvatarURL = in.AvatarURL
	}
	if in.Speciality != nil {
		u.Speciality = in.Speciality
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// startSession issues the token pair and records the refresh token hash in
// both the key-value store and the user row.
func (s *Service) startSession(ctx context.Context, u *User) (*Session, error) {
	access, err := s.issuer.IssueAccessToken(u.ID.String(), u.Role, u.Name)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	hash := auth.HashToken(refresh)
	if err := s.sessions.Set(ctx, refreshKey(hash), u.ID.String(), auth.RefreshTokenTTL); err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return nil, err
	}
	u.RefreshTokenHash = &hash

	return &Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func refreshKey(hash string) string {
	return "refresh:" + hash
}
