package jwt

import (
	"errors"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Service interface {
	// GenerateOperatorToken issues an access token for the ops API.
	GenerateOperatorToken(subject string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	operatorTokenExpiration time.Duration
	tokenAuth               *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, operatorTokenExpiration time.Duration) Service {
	return &JWTService{
		operatorTokenExpiration: operatorTokenExpiration,
		tokenAuth:               jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateOperatorToken(subject string) (token string, expiresAt int64, err error) {
	if subject == "" {
		return "", 0, errors.New("subject is required")
	}
	if j.operatorTokenExpiration <= 0 {
		return "", 0, errors.New("operator token expiration must be positive")
	}

	now := time.Now()
	expiresAt = now.Add(j.operatorTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"role": auth.RoleOperator,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  expiresAt,
	})
	return tokenString, expiresAt, err
}
