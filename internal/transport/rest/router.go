package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
	"github.com/oguzkopan/careerrougelike-sub002/internal/transport/rest/handler"
	"github.com/oguzkopan/careerrougelike-sub002/internal/transport/rest/middleware"
	"github.com/oguzkopan/careerrougelike-sub002/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	MeetingService *service.MeetingService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.MeetingService)
	meetingHandler := handler.NewMeetingHandler(c.MeetingService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes. Meeting creation is called by the trusted game backend
	// when a session is scheduled, before any player session exists.
	v1.HandleFunc("/auth/session", authHandler.CreateSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/meetings", meetingHandler.Create).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require a meeting-scoped token)
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/meetings/{id}", meetingHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/meetings/{id}/join", meetingHandler.Join).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/meetings/{id}/respond", meetingHandler.Respond).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/meetings/{id}/leave", meetingHandler.Leave).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/meetings/{id}/messages", meetingHandler.Messages).Methods("GET", "OPTIONS")

	// WebSocket observer route (token in query param)
	sessionRoutes.HandleFunc("/ws/meetings/{id}/observe", wsHandler.Observe).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
