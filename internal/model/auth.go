package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for meeting-scoped session tokens.
type SessionClaims struct {
	MeetingID    string `json:"meetingId"`
	SessionOwner string `json:"sessionOwner"`
	jwt.RegisteredClaims
}

// SessionRequest is the request body for opening a meeting session.
type SessionRequest struct {
	MeetingID    string `json:"meetingId"`
	SessionOwner string `json:"sessionOwner"`
}

// SessionResponse is returned after a session token is issued.
type SessionResponse struct {
	Token     string `json:"token"`
	MeetingID string `json:"meetingId"`
}
