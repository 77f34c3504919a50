package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/auth"
)

// UserFinder resolves a login name to a configured user
type UserFinder interface {
	Find(ctx context.Context, login string) (auth.User, bool, error)
}

// AuthService handles authentication operations
type AuthService struct {
	users      UserFinder
	jwtService *auth.JWTService
	blocklist  auth.TokenBlocklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users UserFinder,
	jwtService *auth.JWTService,
	blocklist auth.TokenBlocklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		blocklist:  blocklist,
		logger:     logger,
	}
}

// Login authenticates a user against the login file and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	login := strings.TrimSpace(input.Login)
	if login == "" || input.Password == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "usuario y contraseña requeridos")
	}
	s.logger.Info("Login attempt", zap.String("login", login), zap.String("ip", input.IP))

	user, found, err := s.users.Find(ctx, login)
	if err != nil {
		s.logger.Error("Failed to read users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "error leyendo usuarios")
	}
	if !found {
		s.logger.Warn("User not found during login", zap.String("login", login))
		return nil, invalidCredentials()
	}

	switch {
	case user.PasswordHash != "":
		ok, err := auth.VerifyPassword(user.PasswordHash, input.Password)
		if err != nil {
			s.logger.Error("Failed to verify password hash", zap.String("login", login), zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "error verificación de contraseña")
		}
		if !ok {
			s.logger.Warn("Invalid password attempt", zap.String("login", login))
			return nil, invalidCredentials()
		}
	case user.Password != "":
		if subtle.ConstantTimeCompare([]byte(user.Password), []byte(input.Password)) != 1 {
			s.logger.Warn("Invalid password attempt", zap.String("login", login))
			return nil, invalidCredentials()
		}
	default:
		s.logger.Error("User has no password configured", zap.String("login", login))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "usuario mal configurado")
	}

	pair, err := s.jwtService.GenerateTokenPair(user.Claim())
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	s.logger.Info("User logged in successfully", zap.String("user", user.Claim().Identity()))
	return &LoginResult{Tokens: tokensOf(pair), User: user.Claim()}, nil
}

// Refresh rotates the token pair. The used refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if revoked, err := s.blocklist.IsRevoked(ctx, claims.ID); err != nil {
		s.logger.Error("Failed to check token blocklist", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	} else if revoked {
		return nil, tokenError(auth.ErrTokenRevoked)
	}

	pair, _, err := s.jwtService.RefreshTokenPair(refreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if err := s.blocklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed successfully", zap.String("user", claims.Subject))
	tokens := tokensOf(pair)
	return &tokens, nil
}

// Logout revokes the access token and, when it is still valid, the
// refresh token.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessJTI != "" {
		if err := s.blocklist.Revoke(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			s.logger.Error("Failed to revoke access token", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
		}
	}
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			if err := s.blocklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
			}
		}
	}
	s.logger.Info("User logout", zap.String("jti", input.AccessJTI))
	return nil
}

func invalidCredentials() error {
	return shared.NewDomainError("INVALID_CREDENTIALS", "credenciales inválidas")
}

// tokenError maps JWT errors to domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
