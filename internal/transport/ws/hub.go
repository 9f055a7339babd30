package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// EventType defines the type of WebSocket event
type EventType string

const (
	EvtMessagesAppended EventType = "messages_appended"
	EvtStatusChanged    EventType = "status_changed"
	EvtMeetingClosed    EventType = "meeting_closed"
)

// Event is the WebSocket envelope format
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages observer WebSocket connections for meetings
type Hub struct {
	// meetingID -> connections
	observers map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastEvent
}

// Connection represents an observer WebSocket connection
type Connection struct {
	MeetingID string
	Send      chan []byte
	Hub       *Hub
}

type broadcastEvent struct {
	meetingID string
	event     *Event
	// disconnect closes every connection for the meeting after delivery
	disconnect bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		observers:  make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastEvent, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.observers[conn.MeetingID] == nil {
				h.observers[conn.MeetingID] = make(map[*Connection]struct{})
			}
			h.observers[conn.MeetingID][conn] = struct{}{}
			h.mu.Unlock()
			log.Printf("[WS] Observer connected to meeting %s", conn.MeetingID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.observers[conn.MeetingID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.observers, conn.MeetingID)
					}
					log.Printf("[WS] Observer disconnected from meeting %s", conn.MeetingID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg.event)

			h.mu.Lock()
			for conn := range h.observers[msg.meetingID] {
				select {
				case conn.Send <- data:
				default:
					// Drop event if buffer full
				}
				if msg.disconnect {
					delete(h.observers[msg.meetingID], conn)
					close(conn.Send)
				}
			}
			if msg.disconnect {
				delete(h.observers, msg.meetingID)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastMessages pushes newly committed messages to observers (implements service.Broadcaster)
func (h *Hub) BroadcastMessages(meetingID string, messages []model.Message) {
	if len(messages) == 0 {
		return
	}
	data, _ := json.Marshal(messages)
	h.broadcast <- &broadcastEvent{
		meetingID: meetingID,
		event: &Event{
			Type:    EvtMessagesAppended,
			Payload: data,
		},
	}
}

// BroadcastStatus notifies observers of a meeting status change (implements service.Broadcaster)
func (h *Hub) BroadcastStatus(meetingID string, status model.MeetingStatus) {
	data, _ := json.Marshal(map[string]string{"status": string(status)})
	h.broadcast <- &broadcastEvent{
		meetingID: meetingID,
		event: &Event{
			Type:    EvtStatusChanged,
			Payload: data,
		},
	}
}

// DisconnectMeeting closes all observer connections for a meeting (implements service.Broadcaster)
func (h *Hub) DisconnectMeeting(meetingID string) {
	h.broadcast <- &broadcastEvent{
		meetingID:  meetingID,
		event:      &Event{Type: EvtMeetingClosed, Payload: json.RawMessage(`{}`)},
		disconnect: true,
	}
}
