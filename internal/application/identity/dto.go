package identity

import (
	"time"

	"github.com/coltrade/backend/internal/infrastructure/auth"
)

// LoginInput contains the input for user login. Login is a username or an
// email.
type LoginInput struct {
	Login    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens Tokens
	User   auth.UserClaim
}

// Tokens are the signed tokens handed out as cookies
type Tokens struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

// LogoutInput identifies the tokens to revoke. Either may be empty.
type LogoutInput struct {
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

func tokensOf(p *auth.TokenPair) Tokens {
	return Tokens{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
	}
}
