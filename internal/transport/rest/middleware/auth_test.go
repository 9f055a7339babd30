package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzkopan/careerrougelike-sub002/internal/service"
)

func newSessionRouter(t *testing.T, authSvc *service.AuthService) (*mux.Router, *bool) {
	t.Helper()
	called := false
	m := NewAuthMiddleware(authSvc)

	r := mux.NewRouter()
	sub := r.PathPrefix("/v1").Subrouter()
	sub.Use(m.RequireSession)
	sub.HandleFunc("/meetings/{id}/join", func(w http.ResponseWriter, req *http.Request) {
		called = true
		assert.Equal(t, "m-1", GetMeetingID(req.Context()))
		assert.Equal(t, "player-1", GetSessionOwner(req.Context()))
		w.WriteHeader(http.StatusOK)
	}).Methods("POST")
	return r, &called
}

func TestRequireSessionAcceptsBearerToken(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	token, err := authSvc.IssueSessionToken("m-1", "player-1")
	require.NoError(t, err)

	router, called := newSessionRouter(t, authSvc)
	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/m-1/join", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestRequireSessionAcceptsQueryToken(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	token, err := authSvc.IssueSessionToken("m-1", "player-1")
	require.NoError(t, err)

	router, called := newSessionRouter(t, authSvc)
	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/m-1/join?token="+token, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	router, called := newSessionRouter(t, authSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/m-1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestRequireSessionRejectsCrossMeetingToken(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	token, err := authSvc.IssueSessionToken("other-meeting", "player-1")
	require.NoError(t, err)

	router, called := newSessionRouter(t, authSvc)
	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/m-1/join", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}
