// Package transport implements the single-client WebSocket listener that
// carries tool-call envelopes between the broker and the panel host.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/illustrator-mcp-bridge/bridge/internal/broker"
)

const (
	// MaxFrameBytes is the maximum inbound/outbound frame size. Frames
	// larger than this are dropped with a logged protocol error.
	MaxFrameBytes = 10 << 20 // 10 MiB
	pongWait      = 45 * time.Second
	writeWait     = 10 * time.Second
	pingInterval  = 20 * time.Second
)

// Resolver is the subset of *broker.Broker the transport needs to deliver
// inbound responses.
type Resolver interface {
	Resolve(env broker.Envelope) error
	Disconnect()
}

// Server is a single-client WebSocket listener bound to loopback. Accepting
// a new connection replaces any prior one (last-writer-wins); requests
// pending against the replaced connection are rejected with disconnect.
type Server struct {
	logger   *slog.Logger
	resolver Resolver
	upgrader websocket.Upgrader

	mu      sync.Mutex
	current *peerConn
}

type peerConn struct {
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
}

// New constructs a Server that delivers inbound envelopes to resolver.
func New(logger *slog.Logger, resolver Resolver) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and replaces any existing peer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	peer := &peerConn{conn: conn, send: make(chan []byte, 64), cancel: cancel}

	s.replace(peer)

	go s.writeLoop(ctx, peer)
	s.readLoop(ctx, peer)
}

// replace swaps in a new peer, rejecting any requests tied to the prior one
// (last-writer-wins).
func (s *Server) replace(peer *peerConn) {
	s.mu.Lock()
	prior := s.current
	s.current = peer
	s.mu.Unlock()

	if prior != nil {
		prior.cancel()
		_ = prior.conn.Close()
		s.resolver.Disconnect()
	}
}

func (s *Server) readLoop(ctx context.Context, peer *peerConn) {
	defer s.dropIfCurrent(peer)

	peer.conn.SetReadLimit(MaxFrameBytes)
	_ = peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.conn.SetPongHandler(func(string) error {
		return peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messageType, data, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if len(data) > MaxFrameBytes {
			s.logger.Warn("dropped oversize frame", "bytes", len(data))
			continue
		}

		var payload any
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Warn("dropped unparseable frame", "error", err)
			continue
		}
		if err := validateResponseFrame(payload); err != nil {
			s.logger.Warn("dropped invalid frame", "error", err)
			continue
		}

		var env broker.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("dropped unparseable frame", "error", err)
			continue
		}
		if err := s.resolver.Resolve(env); err != nil {
			s.logger.Warn("protocol error resolving response", "error", err, "id", env.ID)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, peer *peerConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := peer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg, ok := <-peer.send:
			if !ok {
				return
			}
			_ = peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := peer.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (s *Server) dropIfCurrent(peer *peerConn) {
	s.mu.Lock()
	if s.current == peer {
		s.current = nil
	}
	s.mu.Unlock()
	peer.cancel()
	_ = peer.conn.Close()
	s.resolver.Disconnect()
}

// Send implements broker.Sender: it fails immediately, without enqueueing,
// when no peer is connected.
func (s *Server) Send(ctx context.Context, env broker.Envelope) error {
	s.mu.Lock()
	peer := s.current
	s.mu.Unlock()
	if peer == nil {
		return fmt.Errorf("no connected panel peer")
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if len(data) > MaxFrameBytes {
		return fmt.Errorf("envelope exceeds max frame size (%d bytes)", len(data))
	}

	select {
	case peer.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Connected reports whether a peer is currently attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Shutdown stops accepting and tears down the current connection.
func (s *Server) Shutdown() {
	s.mu.Lock()
	peer := s.current
	s.current = nil
	s.mu.Unlock()
	if peer != nil {
		peer.cancel()
		_ = peer.conn.Close()
	}
	s.resolver.Disconnect()
}
