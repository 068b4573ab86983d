package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity resolved by the authentication collaborator.
// Tokens are issued elsewhere; this service only validates them and hands
// the room coordinator a {user_id, name, host} triple.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Host   bool   `json:"host"`
	jwt.RegisteredClaims
}

// JWTService validates identity tokens. Generate exists for tooling and tests.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// Generate creates a signed identity token for the user.
func (s *JWTService) Generate(userID, name string, host bool) (string, error) {
	claims := Claims{
		UserID: userID,
		Name:   name,
		Host:   host,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
