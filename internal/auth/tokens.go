package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ProjectHub/internal/config"
)

// Internal verification outcomes. The service layer collapses all of them
// into a single outward-facing error so verification internals never leak.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// AccessClaims rides the short-lived access token; it carries enough for
// role checks without a store lookup, though the gate re-fetches the
// account so deleted principals are rejected immediately.
type AccessClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	StudentCode string `json:"studentCode,omitempty"`
	Name        string `json:"name"`
	jwt.RegisteredClaims
}

// RefreshClaims rides the long-lived refresh token: account id as subject
// plus the session generation used for rotation and reuse detection.
type RefreshClaims struct {
	Generation uint64 `json:"gen"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies both token classes with independent
// secrets.
type TokenIssuer struct {
	cfg *config.TokenConfig
}

func NewTokenIssuer(cfg *config.TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// AccessTTLSeconds is the expiresIn value reported to clients.
func (t *TokenIssuer) AccessTTLSeconds() int64 {
	return int64(t.cfg.AccessTTL.Seconds())
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return t.cfg.RefreshTTL
}

func (t *TokenIssuer) IssueAccessToken(account *Account) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Email:       account.Email,
		Role:        string(account.Role),
		StudentCode: account.StudentCode,
		Name:        account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.cfg.AccessSecret))
}

func (t *TokenIssuer) IssueRefreshToken(accountID primitive.ObjectID, generation uint64) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.RefreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.cfg.RefreshSecret))
}

func (t *TokenIssuer) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(tokenString, claims, t.cfg.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(tokenString, claims, t.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
			return ErrTokenSignature
		default:
			return ErrTokenMalformed
		}
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}
