package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
)

type contextKey string

const (
	MeetingIDKey    contextKey = "meetingId"
	SessionOwnerKey contextKey = "sessionOwner"
)

// AuthMiddleware provides JWT session authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireSession validates the session JWT and checks that its meeting scope
// matches the meeting addressed by the route.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			// Query param fallback for WebSocket upgrades
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateSessionToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		if id := mux.Vars(r)["id"]; id != "" && id != claims.MeetingID {
			http.Error(w, `{"error":"token not valid for this meeting"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, MeetingIDKey, claims.MeetingID)
		ctx = context.WithValue(ctx, SessionOwnerKey, claims.SessionOwner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetMeetingID extracts the token's meeting scope from context
func GetMeetingID(ctx context.Context) string {
	if v := ctx.Value(MeetingIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionOwner extracts the session owner from context
func GetSessionOwner(ctx context.Context) string {
	if v := ctx.Value(SessionOwnerKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
