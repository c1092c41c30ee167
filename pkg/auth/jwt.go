package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTCustomClaims содержит пользовательские поля токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Phone  string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет HS256-токены доступа.
// OTP и прочая выдача учетных данных живут за пределами этого сервиса.
type JWTService struct {
	secretKey     []byte
	expirationHrs int
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secretKey string, expirationHrs int) (*JWTService, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	return &JWTService{
		secretKey:     []byte(secretKey),
		expirationHrs: expirationHrs,
	}, nil
}

// GenerateToken выпускает токен доступа для пользователя
func (s *JWTService) GenerateToken(userID uint, phone string) (string, error) {
	now := time.Now()
	claims := JWTCustomClaims{
		UserID: userID,
		Phone:  phone,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expirationHrs) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken проверяет подпись и срок действия, возвращает claims
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token missing user_id")
	}
	return claims, nil
}
