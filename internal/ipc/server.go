package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runger/ava/internal/protocol"
)

// Handler resolves one selection request. It is invoked synchronously on
// the connection goroutine and only returns once a human (or a timeout)
// has produced a result, so a call may take minutes.
type Handler func(req *protocol.SelectionRequest) *protocol.SelectionResponse

// Server listens on the per-user endpoint and serves one request/response
// cycle per connection.
type Server struct {
	path    string
	handler Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener *net.UnixListener
	stopped  bool
	done     chan struct{}
	loopDone chan struct{}
}

// NewServer creates a server bound to path. If path is empty the per-user
// default is used. A nil logger discards output.
func NewServer(path string, handler Handler, logger *slog.Logger) *Server {
	if path == "" {
		path = SocketPath()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		path:    path,
		handler: handler,
		logger:  logger,
	}
}

// Path returns the endpoint the server binds.
func (s *Server) Path() string {
	return s.path
}

// Start binds the endpoint and begins the accept loop on a background
// goroutine. A stale socket artifact from a crashed predecessor is
// removed before binding. Start fails only if the endpoint cannot be
// bound, which is fatal to the picker process.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("server already started")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stale socket", "path", s.path, "error", err)
	}

	addr := &net.UnixAddr{Name: s.path, Net: "unix"}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		os.Remove(s.path)
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.listener = ln
	s.stopped = false
	s.done = make(chan struct{})
	s.loopDone = make(chan struct{})

	s.logger.Info("selection server listening", "socket", s.path)
	go s.acceptLoop(ln, s.done, s.loopDone)
	return nil
}

// Stop closes the listener and removes the endpoint artifact. Idempotent;
// in-flight connection goroutines are allowed to finish on their own.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped || s.listener == nil {
		// Remove the artifact even if Start was never called, so Stop
		// after Stop leaves nothing behind.
		os.Remove(s.path)
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	ln := s.listener
	s.listener = nil
	loopDone := s.loopDone
	s.mu.Unlock()

	ln.Close()
	<-loopDone
	os.Remove(s.path)
	s.logger.Info("selection server stopped", "socket", s.path)
}

// acceptLoop accepts connections until stopped. Accept is bounded by a
// deadline so a stop request is observed within a poll interval even if
// the close races the accept.
func (s *Server) acceptLoop(ln *net.UnixListener, done, loopDone chan struct{}) {
	defer close(loopDone)
	for {
		select {
		case <-done:
			return
		default:
		}

		ln.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			// Listener closed or broken: either way the loop is over.
			select {
			case <-done:
			default:
				s.logger.Error("accept failed", "error", err)
			}
			return
		}

		go s.handleConn(conn)
	}
}

// handleConn runs one request/response cycle. The goroutine is
// intentionally long-lived: the handler blocks until a human decides.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	req, err := protocol.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		// A bare connect/disconnect is the liveness probe; only log real
		// garbage. Either way: close without a response.
		if !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("connection closed without valid request", "error", err)
		}
		return
	}

	s.logger.Info("selection request received",
		"title", req.Title,
		"items", len(req.Items),
		"page", req.Page,
	)

	resp := s.handler(req)
	if resp == nil {
		resp = protocol.CancelledResponse()
	}

	if err := protocol.WriteMessage(conn, resp); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
