package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgermanis/task-chat-server/internal/metrics"
)

// ErrNotRegistered rejects an attach for a name the registry never reserved.
var ErrNotRegistered = errors.New("display name is not registered")

// Reason identifies which trigger tore a session down.
type Reason int

const (
	ReasonLeft Reason = iota
	ReasonIdle
	ReasonUnresponsive
)

func (r Reason) String() string {
	switch r {
	case ReasonIdle:
		return "disconnected due to inactivity"
	case ReasonUnresponsive:
		return "connection lost"
	default:
		return "left the chat"
	}
}

func (r Reason) announcement(name string) string {
	switch r {
	case ReasonIdle:
		return name + " was disconnected due to inactivity"
	case ReasonUnresponsive:
		return name + " lost the connection"
	default:
		return name + " has left the chat"
	}
}

// NameRegistry is the slice of the registry the hub drives: membership checks
// on attach and release on detach.
type NameRegistry interface {
	Registered(name string) bool
	Release(name string)
}

// PresenceStore mirrors attach/detach into an external store. Best effort.
type PresenceStore interface {
	Online(ctx context.Context, name, socketID string) error
	Offline(ctx context.Context, name, socketID string) error
}

// EventSink receives audit events. Best effort.
type EventSink interface {
	Publish(ctx context.Context, event any) error
}

type HubOptions struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	WriteDeadline time.Duration
	SendBuffer    int
	RateLimit     int
}

// Hub owns the session table and every mutation of it: attach, the single
// detach path all three eviction triggers funnel through, the broadcast
// fan-out and the periodic heartbeat sweep.
type Hub struct {
	// Optional side channels; nil disables them.
	Presence PresenceStore
	Events   EventSink

	mu       sync.RWMutex
	sessions map[string]*Session

	names NameRegistry
	opts  HubOptions
	log   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(names NameRegistry, opts HubOptions, log *zap.SugaredLogger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions: make(map[string]*Session),
		names:    names,
		opts:     opts,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Attach binds a connection to a registered name and announces the arrival to
// everyone else. If a live session already holds the name it is evicted
// through the full detach path first, never blindly overwritten.
func (h *Hub) Attach(conn Conn, name string) (*Session, error) {
	s := newSession(name, uuid.NewString(), conn, h.opts.SendBuffer, h.opts.RateLimit)

	h.mu.Lock()
	if !h.names.Registered(name) {
		h.mu.Unlock()
		return nil, ErrNotRegistered
	}
	prev := h.sessions[name]
	if prev != nil {
		h.removeLocked(prev)
	}
	h.sessions[name] = s
	peers := h.peersLocked(s)
	h.mu.Unlock()

	if prev != nil {
		// The name stays reserved: the successor session holds it now.
		h.afterDetach(prev, ReasonUnresponsive, peers, false)
	}

	s.resetIdleTimer(h.opts.IdleTimeout, func() { h.Detach(s, ReasonIdle) })

	frame := clientStatusFrame(name + " has joined the chat")
	for _, p := range peers {
		p.enqueue(frame)
	}

	metrics.ActiveSessions.Inc()
	if h.Presence != nil {
		if err := h.Presence.Online(context.Background(), name, s.SocketID); err != nil {
			h.log.Warnw("presence online failed", "user", name, "err", err)
		}
	}
	h.publish(map[string]any{"type": "client_connected", "user": name, "socket_id": s.SocketID, "at": time.Now().Unix()})
	h.log.Infow("session attached", "user", name, "socket_id", s.SocketID)
	return s, nil
}

// Detach is the single teardown path for every trigger: explicit close,
// heartbeat failure, inactivity, replacement. Idempotent; a stale caller
// holding a pointer to an already-replaced session is a no-op, so a leftover
// timer can never tear down a successor session under a reused name.
func (h *Hub) Detach(s *Session, reason Reason) {
	h.mu.Lock()
	if cur, ok := h.sessions[s.Name]; !ok || cur != s {
		h.mu.Unlock()
		return
	}
	h.removeLocked(s)
	peers := h.peersLocked(nil)
	h.mu.Unlock()

	h.afterDetach(s, reason, peers, true)
}

// removeLocked cancels the session's timer, closes its connection and drops
// it from the table. Caller holds the write lock.
func (h *Hub) removeLocked(s *Session) {
	s.close()
	delete(h.sessions, s.Name)
}

// afterDetach runs the teardown effects that do not need the table lock:
// departure announcement, name release, mirrors. releaseName is false only
// when the session was evicted to make room for its own replacement.
func (h *Hub) afterDetach(s *Session, reason Reason, peers []*Session, releaseName bool) {
	frame := clientStatusFrame(reason.announcement(s.Name))
	for _, p := range peers {
		p.enqueue(frame)
	}
	if releaseName {
		h.names.Release(s.Name)
	}

	metrics.ActiveSessions.Dec()
	metrics.EvictionsTotal.WithLabelValues(reason.String()).Inc()
	if h.Presence != nil {
		if err := h.Presence.Offline(context.Background(), s.Name, s.SocketID); err != nil {
			h.log.Warnw("presence offline failed", "user", s.Name, "err", err)
		}
	}
	h.publish(map[string]any{"type": "client_detached", "user": s.Name, "socket_id": s.SocketID, "reason": reason.String(), "at": time.Now().Unix()})
	h.log.Infow("session detached", "user", s.Name, "reason", reason.String())
}

// OnMessage runs one inbound frame through validation, the status reply, the
// broadcast fan-out and the inactivity reset. Rejected frames answer the
// sender only and leave every timer untouched.
func (h *Hub) OnMessage(s *Session, raw []byte) {
	env, err := ParseInbound(raw)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			s.enqueue(statusErrorFrame("Not valid JSON"))
		} else {
			s.enqueue(statusErrorFrame("Data not valid"))
		}
		return
	}

	s.markAlive()
	s.enqueue(statusSuccessFrame())
	h.Broadcast(s, raw)
	s.resetIdleTimer(h.opts.IdleTimeout, func() { h.Detach(s, ReasonIdle) })

	metrics.BroadcastsTotal.Inc()
	h.publish(map[string]any{"type": "message_broadcast", "user": env.User, "at": time.Now().Unix()})
}

// Broadcast fans a frame out to every session except origin. Fire-and-forget
// per recipient; a full or dead peer never stalls the rest.
func (h *Hub) Broadcast(origin *Session, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s != origin {
			s.enqueue(frame)
		}
	}
}

// Run drives the heartbeat sweep until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.sweep()
		case <-h.ctx.Done():
			return
		}
	}
}

// sweep evicts every session that failed to answer the previous probe, then
// clears the flag and probes the survivors. A session has a full period to
// answer, so detection lands within two periods of silence.
func (h *Hub) sweep() {
	h.mu.RLock()
	snapshot := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	for _, s := range snapshot {
		if !s.consumeLiveness() {
			h.Detach(s, ReasonUnresponsive)
			continue
		}
		if err := s.ping(h.opts.WriteDeadline); err != nil {
			h.log.Debugw("heartbeat probe failed", "user", s.Name, "err", err)
		}
	}
}

// Shutdown stops the sweeper and tears down every remaining session without
// departure announcements.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done

	h.mu.Lock()
	remaining := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for name, s := range remaining {
		s.close()
		h.names.Release(name)
		metrics.ActiveSessions.Dec()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// peersLocked snapshots every session except skip. Caller holds a lock.
func (h *Hub) peersLocked(skip *Session) []*Session {
	peers := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s != skip {
			peers = append(peers, s)
		}
	}
	return peers
}

func (h *Hub) publish(event map[string]any) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(context.Background(), event); err != nil {
		h.log.Debugw("audit publish failed", "err", err)
	}
}
