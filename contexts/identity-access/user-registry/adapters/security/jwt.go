package security

import (
	"errors"
	"time"

	"acphealth/contexts/identity-access/user-registry/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 bearer tokens for registry users.
type JWTIssuer struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

func (j JWTIssuer) Issue(user entities.User, now time.Time) (string, time.Time, error) {
	if j.Secret == "" {
		return "", time.Time{}, errors.New("jwt secret is required")
	}
	ttl := j.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	issuer := j.Issuer
	if issuer == "" {
		issuer = "acphealth"
	}

	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (j JWTIssuer) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.Secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
