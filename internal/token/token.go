// Package token issues and validates the signed session tokens the API
// hands out after the identity provider accepts a login. Expiry is the
// only invalidation mechanism; there is no revocation list.
package token

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the identity carried inside a session token. Metadata is
// the provider's user_metadata blob, serialized as JSON.
type Claims struct {
	UserID   string
	Email    string
	Name     string
	Metadata map[string]any
}

type Service struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewService(secret, issuer, audience string, ttl time.Duration) *Service {
	return &Service{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

type sessionClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Metadata string `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 token for the user, expiring a fixed TTL from now.
func (s *Service) Issue(userID, email, name string, metadata map[string]any) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if len(metadata) > 0 {
		blob, err := json.Marshal(metadata)
		if err != nil {
			return "", err
		}
		claims.Metadata = string(blob)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate verifies signature, issuer, audience, and expiry. Any failure,
// including malformed input, comes back as ErrInvalidToken.
func (s *Service) Validate(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	sc, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID: sc.Subject,
		Email:  sc.Email,
		Name:   sc.Name,
	}
	if sc.Metadata != "" {
		// A token we signed carries valid JSON here; anything else
		// means the claim set is not ours.
		if err := json.Unmarshal([]byte(sc.Metadata), &claims.Metadata); err != nil {
			return Claims{}, ErrInvalidToken
		}
	}
	return claims, nil
}
