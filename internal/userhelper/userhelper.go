// Package userhelper is the bridge's local IPC endpoint: the tray/status
// helper running in the user's session connects here to receive
// notification events and, critically, to trigger the emergency unlock —
// the local UI affordance that guarantees the seated human can always take
// input back even if the controller is gone.
package userhelper

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("userhelper")

// Request is one line-delimited JSON message from the helper.
type Request struct {
	Type string `json:"type"` // emergency_unlock | status | ping
}

// Response answers one Request.
type Response struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// Hooks are the bridge operations the helper may invoke.
type Hooks struct {
	EmergencyUnlock func(ctx context.Context) error
	IsLocked        func() bool
}

// Server accepts helper connections on the platform's IPC endpoint (a unix
// socket, or a named pipe on Windows).
type Server struct {
	hooks Hooks

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewServer builds the IPC server. Call Serve to start accepting.
func NewServer(hooks Hooks) *Server {
	return &Server{hooks: hooks, conns: make(map[net.Conn]struct{})}
}

// Serve listens on the platform endpoint and handles helper connections
// until Close. The accept loop runs on the calling goroutine.
func (s *Server) Serve() error {
	lis, err := listenPlatform()
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		lis.Close()
		return nil
	}
	s.listener = lis
	s.mu.Unlock()

	log.Info("userhelper ipc listening", "addr", lis.Addr().String())
	for {
		conn, err := lis.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			log.Warn("ipc accept failed", "error", err)
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(Response{Error: "malformed request"})
			continue
		}
		enc.Encode(s.dispatch(req))
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Type {
	case "emergency_unlock":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.hooks.EmergencyUnlock(ctx); err != nil {
			log.Error("emergency unlock via helper failed", "error", err)
			return Response{Error: err.Error()}
		}
		log.Info("emergency unlock triggered by user helper")
		return Response{OK: true}
	case "status":
		return Response{OK: true, Locked: s.hooks.IsLocked()}
	case "ping":
		return Response{OK: true}
	default:
		return Response{Error: "unknown request type " + req.Type}
	}
}

// Close stops the accept loop and drops helper connections.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	lis := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if lis != nil {
		lis.Close()
	}
}
