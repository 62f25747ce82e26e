package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/buildwatch/buildwatch/internal/buildwatch/errors"
	"github.com/buildwatch/buildwatch/internal/log"
)

// connTimeout bounds how long a single control connection may take.
const connTimeout = 30 * time.Second

// Server accepts control connections on a Unix socket and routes each
// command to the handler.
type Server struct {
	socketPath string
	listener   net.Listener
	mu         sync.RWMutex
	handler    CommandHandler
}

// NewServer creates a socket server. Init must run before Run.
func NewServer(socketPath string, handler CommandHandler) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
	}
}

// Init binds the socket, replacing any stale socket file left behind by a
// previous run.
func (s *Server) Init() error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Error("Failed to remove existing socket file: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o750); err != nil {
		return errors.Wrap(err, "creating socket directory")
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return errors.Wrap(err, "binding control socket")
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	log.DebugH2("Control socket listening: %s", s.socketPath)
	return nil
}

// Close stops accepting connections and removes the socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	if removeErr := os.Remove(s.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
		log.Error("Failed to remove socket file: %v", removeErr)
	}
	return err
}

// Run accepts connections until the context is canceled or the listener
// closes.
func (s *Server) Run(ctx context.Context) {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	if listener == nil {
		return
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			// A closed listener ends the loop; anything else is transient.
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error("Failed to accept control connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd Command
	if err := decoder.Decode(&cmd); err != nil {
		_ = encoder.Encode(Response{
			Success: false,
			Error:   fmt.Sprintf("failed to decode command: %v", err),
		})
		return
	}

	response := s.handler.HandleCommand(cmd)
	if err := encoder.Encode(response); err != nil {
		log.Error("Failed to send control response: %v", err)
	}
}
