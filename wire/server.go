package wire

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/aastarcommunity/keyvault/crypto"
	"github.com/aastarcommunity/keyvault/enclave"
)

// Server hosts an engine behind the framed protocol on a Unix socket.
// Each accepted connection is one caller session: the engine's session
// counter tracks connections, and every invocation is serialized through
// the engine's own dispatch mutex.
type Server struct {
	engine *enclave.Engine
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewServer creates a server for the given engine. A nil logger falls back
// to slog.Default.
func NewServer(engine *enclave.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// Listen binds the Unix socket, removing any stale socket file first.
func (s *Server) Listen(socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.running.Store(true)
	return nil
}

// Serve accepts connections until Shutdown is called. It returns nil on a
// clean shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := l.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting connections and waits for in-flight sessions.
func (s *Server) Shutdown() {
	s.running.Store(false)
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// handleConn serves one caller session.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	s.engine.OpenSession()
	defer s.engine.CloseSession()
	s.logger.Debug("session opened", "remote", conn.RemoteAddr().String())

	for {
		h, payload, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("session read failed", "error", err)
			}
			return
		}

		resp := s.dispatch(h, payload)
		respHeader := Header{
			Flags:     FlagResponse,
			Command:   h.Command,
			RequestID: h.RequestID,
		}
		if err := WriteFrame(conn, respHeader, resp); err != nil {
			s.logger.Debug("session write failed", "error", err)
			return
		}
	}
}

// dispatch decodes one request, invokes the engine, and builds the response
// payload: a 4-byte status code followed by the result layout, if any.
func (s *Server) dispatch(h Header, payload []byte) []byte {
	cmd, err := DecodeRequest(enclave.CommandID(h.Command), payload)
	if err != nil {
		s.logger.Warn("rejected malformed request", "command", h.Command, "error", err)
		return statusOnly(StatusCode(err))
	}

	result, err := s.engine.Invoke(cmd)
	if err != nil {
		s.logger.Info("command failed", "command", h.Command, "error", err)
		return statusOnly(StatusCode(err))
	}

	body, err := encodeResult(result)
	if err != nil {
		s.logger.Error("failed to encode result", "command", h.Command, "error", err)
		return statusOnly(StatusCode(err))
	}

	resp := make([]byte, 4+len(body))
	layout.PutUint32(resp[0:4], StatusOK)
	copy(resp[4:], body)
	return resp
}

func statusOnly(code uint32) []byte {
	buf := make([]byte, 4)
	layout.PutUint32(buf, code)
	return buf
}

// encodeResult marshals a typed engine result into its wire layout.
func encodeResult(result interface{}) ([]byte, error) {
	switch r := result.(type) {
	case [crypto.AddressSize]byte:
		out := make([]byte, crypto.AddressSize)
		copy(out, r[:])
		return out, nil
	case *enclave.SignatureResult:
		out := make([]byte, SignatureResultSize)
		if _, err := MarshalSignatureResult(out, r); err != nil {
			return nil, err
		}
		return out, nil
	case *enclave.PublicKeyResult:
		out := make([]byte, PublicKeyResultSize)
		if _, err := MarshalPublicKeyResult(out, r); err != nil {
			return nil, err
		}
		return out, nil
	case *enclave.KeyListResult:
		out := make([]byte, KeyListResultSize)
		if _, err := MarshalKeyListResult(out, r); err != nil {
			return nil, err
		}
		return out, nil
	case *enclave.VersionInfo:
		out := make([]byte, VersionInfoSize)
		if _, err := MarshalVersionInfo(out, r); err != nil {
			return nil, err
		}
		return out, nil
	case *enclave.HealthResult:
		out := make([]byte, HealthResultSize)
		if _, err := MarshalHealthResult(out, r); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported result type %T", result)
	}
}
