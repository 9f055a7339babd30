package service

import "github.com/oguzkopan/careerrougelike-sub002/internal/model"

// Broadcaster pushes new state to read-only meeting observers over WebSocket
// (interface here avoids an import cycle with the transport package)
type Broadcaster interface {
	BroadcastMessages(meetingID string, messages []model.Message)
	BroadcastStatus(meetingID string, status model.MeetingStatus)
	DisconnectMeeting(meetingID string)
}
