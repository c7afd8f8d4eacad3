package jwtauth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Leopold1975/awr_control/internal/awr/domain/models"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnexpectedAlg = errors.New("unexpected signing method")
)

type Claims struct {
	Role      models.Role `json:"role"`
	BrigadeID *int        `json:"brigade_id,omitempty"` //nolint:tagliatelle
	jwt.StandardClaims
}

func GetToken(u models.User, ttl time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := Claims{
		Role:      u.Role,
		BrigadeID: u.BrigadeID,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			Id:        uuid.NewString(),
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return signed, nil
}

// ValidateToken проверяет подпись и срок действия и возвращает владельца токена.
func ValidateToken(tokenString, secret string) (models.Actor, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlg, t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return models.Actor{}, fmt.Errorf("parse token error: %w", err)
	}

	if !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	if !claims.Role.Valid() {
		return models.Actor{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}

	return models.Actor{
		UserID:    id,
		Role:      claims.Role,
		BrigadeID: claims.BrigadeID,
	}, nil
}
