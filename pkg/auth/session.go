package auth

import (
	"errors"
	"time"

	"digitrack/pkg/models"

	"github.com/golang-jwt/jwt/v4"
)

const CookieName = "session"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	AccountID uint        `json:"account_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies signed session tokens.
type Sessions struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewSessions(secretKey string, ttl time.Duration) *Sessions {
	return &Sessions{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func (s *Sessions) Issue(account *models.Account) (string, error) {
	now := s.now()
	claims := &Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *Sessions) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
