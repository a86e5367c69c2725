package auth

import (
	"context"
	"errors"
	"time"

	"github.com/paisa-pay/paisa_pay/internal/config"
	"github.com/paisa-pay/paisa_pay/internal/identity"
)

// ErrInvalidToken covers malformed, tampered, expired, and version
// invalidated tokens.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies token pairs.
type Service struct {
	cfg config.Config
	ids *identity.Service
}

// NewService wires the auth service.
func NewService(cfg config.Config, ids *identity.Service) *Service {
	return &Service{cfg: cfg, ids: ids}
}

// TokenPair carries the issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues a token pair for an already-authenticated user.
func (s *Service) Login(user identity.User) (TokenPair, error) {
	access, accessExp, err := s.sign(user, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.sign(user, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

func (s *Service) sign(user identity.User, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := map[string]any{
		"sub":   user.ID,
		"phone": user.Phone,
		"tier":  string(user.Tier),
		"ver":   user.TokenVersion,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Refresh verifies the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseAndVerifyHS256(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	if expired(claims) {
		return "", 0, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	verFloat, _ := claims["ver"].(float64)
	ver := int(verFloat)

	user, err := s.ids.Get(ctx, sub)
	if err != nil {
		return "", 0, ErrInvalidToken
	}
	if user.TokenVersion != ver {
		return "", 0, ErrInvalidToken
	}

	now := time.Now()
	accessClaims := map[string]any{
		"sub": sub,
		"ver": ver,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.AccessTokenTTL).Unix(),
	}
	signed, err := SignHS256(accessClaims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout bumps the user's token version so outstanding tokens stop
// verifying.
func (s *Service) Logout(ctx context.Context, userID string) error {
	_, err := s.ids.BumpTokenVersion(ctx, userID)
	return err
}

// VerifyAccess checks an access token and returns the subject user id.
func (s *Service) VerifyAccess(ctx context.Context, token string) (string, error) {
	claims, err := ParseAndVerifyHS256(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", ErrInvalidToken
	}
	if expired(claims) {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	verFloat, _ := claims["ver"].(float64)
	user, err := s.ids.Get(ctx, sub)
	if err != nil {
		return "", ErrInvalidToken
	}
	if user.TokenVersion != int(verFloat) {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func expired(claims map[string]any) bool {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Now().Unix() >= int64(exp)
}
