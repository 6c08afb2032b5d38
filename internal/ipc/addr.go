// Package ipc implements the selection protocol transport: a per-user
// Unix domain socket, a client that probes and sends framed requests, and
// a server that accepts one request per connection.
package ipc

import (
	"os"
	"time"

	"github.com/runger/ava/internal/config"
)

// Default timeouts for the two client operations.
const (
	// ProbeTimeout bounds the reachability probe. A picker on the local
	// host answers a unix-socket connect in microseconds; anything slower
	// is as good as absent.
	ProbeTimeout = 500 * time.Millisecond

	// SendTimeout is the default end-to-end wait for a response. It is
	// deliberately long: a human is on the other end deciding.
	SendTimeout = 180 * time.Second

	// acceptPoll bounds how long the accept loop blocks before it checks
	// for a stop request.
	acceptPoll = 1 * time.Second
)

// SocketPath returns the per-user endpoint address. Deterministic and
// collision-free across users: the runtime directory is derived from
// XDG_RUNTIME_DIR (or a uid-keyed /tmp fallback), so client and server
// agree on a rendezvous point without configuration.
func SocketPath() string {
	if path := os.Getenv("AVA_SOCKET"); path != "" {
		return path
	}
	return config.DefaultPaths().SocketFile()
}

// SocketExists checks if an endpoint artifact exists at path on disk. An
// empty path means the per-user default. The artifact can outlive a
// crashed picker; reachability is the real liveness signal.
func SocketExists(path string) bool {
	if path == "" {
		path = SocketPath()
	}
	_, err := os.Stat(path)
	return err == nil
}
