package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/runger/ava/internal/protocol"
)

// Client talks to the picker process over the selection protocol.
type Client struct {
	path         string
	probeTimeout time.Duration
	logger       *slog.Logger
}

// NewClient creates a client for the endpoint at path. If path is empty
// the per-user default is used. A nil logger discards output.
func NewClient(path string, logger *slog.Logger) *Client {
	if path == "" {
		path = SocketPath()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		path:         path,
		probeTimeout: ProbeTimeout,
		logger:       logger,
	}
}

// SetProbeTimeout overrides the reachability probe bound. Zero or
// negative restores the default.
func (c *Client) SetProbeTimeout(d time.Duration) {
	if d <= 0 {
		d = ProbeTimeout
	}
	c.probeTimeout = d
}

// IsReachable reports whether a picker is serving the endpoint. The probe
// is a bare connect/disconnect with no payload; the server treats such
// connections as liveness checks.
func (c *Client) IsReachable() bool {
	conn, err := net.DialTimeout("unix", c.path, c.probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Send transmits one framed selection request and blocks for the framed
// response.
//
// On timeout it returns a synthetic cancelled response (not an error), so
// callers treat an unhurried human and an explicit cancel uniformly. On
// any other I/O failure it returns a nil response and the error: treat
// the picker as unavailable and fall back.
func (c *Client) Send(req *protocol.SelectionRequest, timeout time.Duration) (*protocol.SelectionResponse, error) {
	if timeout <= 0 {
		timeout = SendTimeout
	}
	if req.Type == "" {
		req.Type = protocol.TypeSelectionRequest
	}

	conn, err := net.DialTimeout("unix", c.path, c.probeTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to picker: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if err := protocol.WriteMessage(conn, req); err != nil {
		return nil, err
	}

	resp, err := protocol.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			c.logger.Info("selection request timed out", "timeout", timeout)
			resp := protocol.CancelledResponse()
			resp.TimedOut = true
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}
