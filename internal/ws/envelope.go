package ws

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	TypeMessage      = "message"
	TypeStatus       = "status"
	TypeClientStatus = "clientStatus"
)

const (
	StatusSuccess = "Success"
	StatusError   = "Error"
)

var (
	// ErrMalformed flags an inbound payload that is not valid JSON.
	ErrMalformed = errors.New("payload is not valid JSON")
	// ErrInvalid flags a parsed payload missing user, text or date.
	ErrInvalid = errors.New("payload missing required message fields")
)

// Stamp is the client-supplied timestamp pair carried on every message.
type Stamp struct {
	Timestamp int64  `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// Envelope is the wire format for everything exchanged over the websocket.
type Envelope struct {
	Type   string `json:"type"`
	User   string `json:"user,omitempty"`
	Text   string `json:"text,omitempty"`
	Status string `json:"status,omitempty"`
	Date   *Stamp `json:"date,omitempty"`
}

// ParseInbound decodes and validates a client frame. Only envelopes carrying
// user, text and date are eligible for broadcast; anything else is rejected
// before it can touch session state.
func ParseInbound(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformed
	}
	if env.User == "" || env.Text == "" || env.Date == nil {
		return nil, ErrInvalid
	}
	return &env, nil
}

func statusSuccessFrame() []byte {
	b, _ := json.Marshal(Envelope{Type: TypeStatus, Status: StatusSuccess})
	return b
}

func statusErrorFrame(text string) []byte {
	b, _ := json.Marshal(Envelope{Type: TypeStatus, Status: StatusError, Text: text})
	return b
}

// clientStatusFrame builds a system announcement (join, leave, eviction).
func clientStatusFrame(text string) []byte {
	now := time.Now()
	b, _ := json.Marshal(Envelope{
		Type: TypeClientStatus,
		Text: text,
		Date: &Stamp{Timestamp: now.UnixMilli(), Formatted: now.UTC().Format(time.RFC3339)},
	})
	return b
}
