package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"
)

// Conn is the slice of the websocket connection the session layer owns.
// Closing it is the session's responsibility alone.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Session binds one registered display name to one live connection, together
// with the liveness flag read by the heartbeat sweep and the single pending
// inactivity timer.
type Session struct {
	Name     string
	SocketID string

	conn    Conn
	send    chan []byte
	limiter *rate.Limiter

	mu        sync.Mutex
	alive     bool
	idleTimer *time.Timer
	closed    bool
}

func newSession(name, socketID string, conn Conn, sendBuffer, rps int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	if rps <= 0 {
		rps = 20
	}
	return &Session{
		Name:     name,
		SocketID: socketID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		alive:    true,
	}
}

// enqueue hands a frame to the write pump without blocking the caller. A peer
// whose buffer is full is already drifting toward eviction; the frame is
// dropped.
func (s *Session) enqueue(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- frame:
	default:
	}
}

// markAlive records a heartbeat acknowledgment (pong or any valid message).
func (s *Session) markAlive() {
	s.mu.Lock()
	s.alive = true
	s.mu.Unlock()
}

// consumeLiveness reports whether the session answered since the last sweep
// and clears the flag for the next round.
func (s *Session) consumeLiveness() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.alive
	s.alive = false
	return was
}

func (s *Session) ping(deadline time.Duration) error {
	return s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(deadline))
}

func (s *Session) allow() bool {
	return s.limiter.Allow()
}

// resetIdleTimer schedules the inactivity eviction, canceling any previous
// one first so at most one timer is ever pending for the session.
func (s *Session) resetIdleTimer(d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(d, fire)
}

// close tears down the session's owned resources exactly once: the pending
// inactivity timer, the send channel and the connection.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	close(s.send)
	_ = s.conn.Close()
}
