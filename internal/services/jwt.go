package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "pod-console"

// JWTService signs the console's own session tokens. The upstream bearer
// token never leaves the server; browsers only hold one of these.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

type Claims struct {
	SessionID  uuid.UUID `json:"session_id"`
	AdminID    string    `json:"admin_id"`
	Email      string    `json:"email"`
	SuperAdmin bool      `json:"super_admin"`
	jwt.RegisteredClaims
}

type SessionToken struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn int64
}

func NewJWTService(secret string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// GenerateToken signs a token for a session. It never outlives expiresAt.
func (s *JWTService) GenerateToken(sessionID uuid.UUID, adminID, email string, superAdmin bool, expiresAt time.Time) (*SessionToken, error) {
	now := time.Now()
	exp := now.Add(s.expiry)
	if !expiresAt.IsZero() && expiresAt.Before(exp) {
		exp = expiresAt
	}

	claims := Claims{
		SessionID:  sessionID,
		AdminID:    adminID,
		Email:      email,
		SuperAdmin: superAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   adminID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &SessionToken{
		Token:     signed,
		ExpiresAt: exp,
		ExpiresIn: int64(exp.Sub(now).Seconds()),
	}, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("token carries no session")
	}

	return claims, nil
}

func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}
