// Package stubapi is a self-contained development server speaking the same
// REST surface the client consumes. It keeps everything in memory and seeds
// one user per role, which makes it the fixture for end-to-end runs of the
// client without a real backend.
package stubapi

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"admitcrm/internal/crm"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carries the user reference and the access/refresh discriminator.
type Claims struct {
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies the HS256 tokens the stub hands out.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(signingKey string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) MintAccess(user crm.User) (string, error) {
	return s.mint(user, tokenTypeAccess, s.accessTTL)
}

func (s *TokenService) MintRefresh(user crm.User) (string, error) {
	return s.mint(user, tokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) mint(user crm.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

var errWrongTokenType = errors.New("wrong token type")

// Verify parses the token and checks it carries the expected type.
func (s *TokenService) Verify(token, wantType string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != wantType {
		return nil, errWrongTokenType
	}
	return claims, nil
}
