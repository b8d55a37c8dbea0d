// Package telem streams per-tick locomotion telemetry to ground-station
// clients over websockets and accepts teleoperation commands back on the
// same connection.
package telem

import (
	"net/http"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is one tick's telemetry record.
type Frame struct {
	TimeS   float64             `json:"time_s"`
	Report  loco.TickReport     `json:"report"`
	Demands loco.WheelDemandSet `json:"wheel_demands"`
}

// inbound is the envelope ground clients send: either a motion command or
// the explicit fault reset.
type inbound struct {
	Type loco.CommandType `json:"type"`

	SpeedMps      float64 `json:"speed_mps,omitempty"`
	CurvaturePerM float64 `json:"curvature_per_m,omitempty"`
	YawRateRps    float64 `json:"yaw_rate_rps,omitempty"`
}

// resetType is the inbound type value requesting a locomotion fault reset.
const resetType loco.CommandType = "reset"

// Server fans tick frames out to any number of websocket clients and holds
// the most recent teleop command for the control loop. If no fresh command
// arrives inside the staleness window, the command source substitutes a
// stop: a dead teleop link must never leave the rover driving.
type Server struct {
	bind       string
	staleAfter time.Duration
	upgrader   websocket.Upgrader
	logger     golog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	cmdMu          sync.Mutex
	pending        *loco.MotionCommand
	lastRecv       time.Time
	staleStopSent  bool
	resetRequested bool

	srv *http.Server
}

// NewServer builds a telemetry server listening on bind once started.
func NewServer(bind string, staleAfter time.Duration, logger golog.Logger) *Server {
	s := &Server{
		bind:       bind,
		staleAfter: staleAfter,
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:     logger,
		clients:    make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/telem", s.handleWS)
	s.srv = &http.Server{Addr: bind, Handler: mux}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Infow("telemetry server listening", "bind", s.bind)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorw("telemetry server stopped", "error", err)
		}
	}()
}

// Close stops the listener and drops all clients.
func (s *Server) Close() error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	return s.srv.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	s.logger.Infow("ground client connected", "remote", conn.RemoteAddr().String())

	go s.readLoop(conn)
}

// readLoop consumes teleop messages from one client until it drops.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
		s.logger.Infow("ground client disconnected", "remote", conn.RemoteAddr().String())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Warnw("bad teleop message", "error", err)
			continue
		}

		if msg.Type == resetType {
			s.cmdMu.Lock()
			s.resetRequested = true
			s.cmdMu.Unlock()
			continue
		}

		cmd := loco.MotionCommand{
			Type:          msg.Type,
			SpeedMps:      msg.SpeedMps,
			CurvaturePerM: msg.CurvaturePerM,
			YawRateRps:    msg.YawRateRps,
		}
		if !cmd.Valid() {
			s.logger.Warnw("unknown teleop command type", "type", string(msg.Type))
			continue
		}

		s.cmdMu.Lock()
		s.pending = &cmd
		s.lastRecv = time.Now()
		s.staleStopSent = false
		s.cmdMu.Unlock()
	}
}

// NextCommand returns the teleop command for this tick, or nil if there is
// none. When the link has gone stale a single stop command is substituted.
func (s *Server) NextCommand() *loco.MotionCommand {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if cmd := s.pending; cmd != nil {
		s.pending = nil
		return cmd
	}

	if !s.lastRecv.IsZero() && !s.staleStopSent && time.Since(s.lastRecv) > s.staleAfter {
		s.staleStopSent = true
		s.logger.Warnw("teleop link stale, substituting stop",
			"stale_after", s.staleAfter.String())
		stop := loco.Stop()
		return &stop
	}
	return nil
}

// TakeReset reports and clears a pending fault reset request.
func (s *Server) TakeReset() bool {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	requested := s.resetRequested
	s.resetRequested = false
	return requested
}

// Publish fans one tick frame out to every connected client. Clients that
// fail to accept the write are dropped.
func (s *Server) Publish(f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		s.logger.Errorw("cannot serialise telemetry frame", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			delete(s.clients, conn)
			conn.Close()
		}
	}
}
