package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/runtimepath"
)

// ErrAlreadyRunning is returned by Start when another daemon answers on the
// socket.
var ErrAlreadyRunning = errors.New("daemon already running")

// Controller is the daemon surface the server drives.
type Controller interface {
	Status() StatusData
	Displays() ([]DisplayInfo, error)
	SetPaused(paused bool) (bool, error)
	TogglePause() (bool, error)
	SetMode(mode string) error
	ListProfiles() []ProfileInfo
	ApplyProfile(name string) error
	SaveProfile(name string) error
	DeleteProfile(name string) error
	Reload() error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server on the default socket path.
func NewServer(ctrl Controller, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, ctrl, logger), nil
}

// NewServerAt creates a server on socketPath.
func NewServerAt(socketPath string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. A live daemon on the same
// socket makes Start fail with ErrAlreadyRunning; a stale socket file is
// removed.
func (s *Server) Start() error {
	if err := NewClientAt(s.socketPath).Ping(); err == nil {
		return fmt.Errorf("%w on %s", ErrAlreadyRunning, s.socketPath)
	}
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) isShuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", string(req.Command))

	switch req.Command {
	case CommandReload:
		return s.result(nil, s.ctrl.Reload())
	case CommandGetStatus:
		status := s.ctrl.Status()
		status.DaemonRunning = true
		status.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
		return s.result(status, nil)
	case CommandGetDisplays:
		displays, err := s.ctrl.Displays()
		return s.result(DisplaysData{Displays: displays}, err)
	case CommandPause:
		return s.pauseResult(s.ctrl.SetPaused(true))
	case CommandResume:
		return s.pauseResult(s.ctrl.SetPaused(false))
	case CommandTogglePause:
		return s.pauseResult(s.ctrl.TogglePause())
	case CommandSetMode:
		var payload ModePayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(err.Error())
		}
		if payload.Mode == "" {
			return NewErrorResponse("mode is required")
		}
		return s.result(nil, s.ctrl.SetMode(payload.Mode))
	case CommandListProfiles:
		return s.result(ProfilesData{Profiles: s.ctrl.ListProfiles()}, nil)
	case CommandApplyProfile, CommandSaveProfile, CommandDeleteProfile:
		var payload ProfilePayload
		if err := decodePayload(req.Payload, &payload); err != nil {
			return NewErrorResponse(err.Error())
		}
		if payload.Name == "" {
			return NewErrorResponse("name is required")
		}
		switch req.Command {
		case CommandApplyProfile:
			return s.result(nil, s.ctrl.ApplyProfile(payload.Name))
		case CommandSaveProfile:
			return s.result(nil, s.ctrl.SaveProfile(payload.Name))
		default:
			return s.result(nil, s.ctrl.DeleteProfile(payload.Name))
		}
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) pauseResult(paused bool, err error) *Response {
	return s.result(PauseData{Paused: paused}, err)
}

func (s *Server) result(data interface{}, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func decodePayload(payload json.RawMessage, out interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
