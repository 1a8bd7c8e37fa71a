// Package server provides the HTTP REST API for the talent board.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/talent-board/internal/lifecycle"
	"github.com/jonathan/talent-board/internal/types"
)

// Claims represents JWT claims with user ID and role.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// JWTService provides JWT token generation and validation functionality.
type JWTService struct {
	secret          string
	expirationHours int
}

// NewJWTService creates a new JWT service with the given signing secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret:          secret,
		expirationHours: 24,
	}
}

// GenerateToken generates a JWT token for the given user ID and role.
func (s *JWTService) GenerateToken(userID uuid.UUID, role types.UserRole) (string, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.expirationHours) * time.Hour)

	claims := &Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}

// actorFromRequest extracts the authenticated actor from the request's
// bearer token. Returns nil when no Authorization header is present.
func (s *Server) actorFromRequest(r *http.Request) (*lifecycle.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header must use Bearer scheme")
	}

	claims, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &lifecycle.Actor{
		ID:   claims.UserID,
		Role: types.UserRole(claims.Role),
	}, nil
}

// requireActor resolves the actor or writes the appropriate auth error:
// 401 when no credentials were presented, 401 when they fail to verify.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) *lifecycle.Actor {
	actor, err := s.actorFromRequest(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Invalid token")
		return nil
	}
	if actor == nil {
		s.errorResponse(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	return actor
}
