package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/microtask-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/microtask-escrow/internal/models"
)

// TokenManager проверяет токены провайдера идентификации (HS256, общий секрет).
// Выпуск токенов нужен для локального запуска и тестов.
type TokenManager struct {
	secret []byte
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Issue выпускает access токен с клеймами sub и role.
func (m *TokenManager) Issue(p models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  p.UserID.String(),
		"role": string(p.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAccess извлекает вызывающего из access токена.
func (m *TokenManager) ParseAccess(token string) (models.Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Principal{}, err
	}
	if !parsed.Valid {
		return models.Principal{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Principal{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Principal{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return models.Principal{}, fmt.Errorf("token: invalid subject: %w", err)
	}

	roleClaim, _ := claims["role"].(string)
	role := valueobject.Role(roleClaim)
	if !role.IsValid() {
		return models.Principal{}, jwt.ErrTokenInvalidClaims
	}

	return models.Principal{UserID: userID, Role: role}, nil
}
