package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates meeting-scoped session tokens. Account
// authentication happens upstream; this only binds a session owner to one
// meeting for the duration of the session.
type AuthService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		tokenTTL:  24 * time.Hour,
	}
}

// IssueSessionToken creates a JWT scoped to one meeting
func (s *AuthService) IssueSessionToken(meetingID, sessionOwner string) (string, error) {
	claims := &model.SessionClaims{
		MeetingID:    meetingID,
		SessionOwner: sessionOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSessionToken validates a session JWT and returns its claims
func (s *AuthService) ValidateSessionToken(tokenString string) (*model.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.SessionClaims)
	if !ok || claims.MeetingID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
