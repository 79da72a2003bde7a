package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/kestrelbrowser/kestrel/internal/auth"
	"github.com/kestrelbrowser/kestrel/internal/config"
	"github.com/kestrelbrowser/kestrel/internal/runtimepath"
	"github.com/kestrelbrowser/kestrel/internal/shell"
)

// job is one inbound request waiting for its turn on the dispatch loop.
type job struct {
	req   *Request
	reply chan result
}

// result carries either an immediate response or a wait closure the
// connection goroutine runs after the dispatch loop has moved on. Auth
// requests use the latter so a suspended caller never blocks dispatch.
type result struct {
	resp *Response
	wait func() *Response
}

// Server handles IPC requests from clients. All state mutation is funneled
// through a single dispatch loop, so requests for the same window are
// processed strictly in arrival order.
type Server struct {
	socketPath string
	listener   net.Listener
	registry   *shell.Registry
	startTime  time.Time

	cfg   *config.Config
	cfgMu sync.RWMutex

	jobs  chan job
	tasks chan func()

	reloadChan chan struct{}

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server.
func NewServer(cfg *config.Config, registry *shell.Registry, reloadChan chan struct{}) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove existing socket if present.
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		registry:   registry,
		startTime:  time.Now(),
		cfg:        cfg,
		jobs:       make(chan job),
		tasks:      make(chan func()),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Run executes the dispatch loop. Every command handler and every submitted
// task runs here, one at a time; nothing else touches the registry. Blocks
// until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			j.reply <- s.handleCommand(j.req)
		case fn := <-s.tasks:
			fn()
		}
	}
}

// Submit schedules fn onto the dispatch loop. Used by the reconciler and the
// window event glue so their mutations serialize with client requests.
func (s *Server) Submit(fn func()) {
	s.tasks <- fn
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	reply := make(chan result, 1)
	s.jobs <- job{req: req, reply: reply}
	res := <-reply

	resp := res.resp
	if res.wait != nil {
		// Suspended commands (auth) finish off the dispatch loop.
		resp = res.wait()
	}

	s.sendResponse(conn, resp)
}

func (s *Server) sendResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func immediate(resp *Response) result { return result{resp: resp} }

// handleCommand processes one IPC command on the dispatch loop.
func (s *Server) handleCommand(req *Request) result {
	switch req.Command {
	case CommandGetStatus:
		return immediate(s.handleGetStatus())
	case CommandReload:
		return immediate(s.handleReload())
	}

	entry, ok := s.registry.Get(req.WindowID)
	if !ok {
		return immediate(NewErrorResponse(fmt.Sprintf("Unknown window: %d", req.WindowID)))
	}

	switch req.Command {
	case CommandCreateView:
		return immediate(s.handleCreateView(entry.Manager, req.Payload))
	case CommandCreateViews:
		return immediate(s.handleCreateViews(entry.Manager, req.Payload))
	case CommandAddTab:
		return immediate(s.handleAddTab(entry.Manager, req.Payload))
	case CommandSelectView:
		return immediate(s.handleSelectView(entry.Manager, req.Payload))
	case CommandDestroyView:
		return immediate(s.handleDestroyView(entry.Manager, req.Payload))
	case CommandMuteView:
		return immediate(s.handleMuteView(entry.Manager, req.Payload))
	case CommandClearViews:
		entry.Manager.Clear()
		return immediate(okResponse(nil))
	case CommandChangeZoom:
		return immediate(s.handleChangeZoom(entry.Manager, req.Payload))
	case CommandResetZoom:
		entry.Manager.ResetZoom()
		return immediate(s.zoomResponse(entry.Manager, true))
	case CommandPrint:
		entry.Manager.Print()
		return immediate(okResponse(nil))
	case CommandSetFullscreen:
		return immediate(s.handleSetFullscreen(entry.Manager, req.Payload))
	case CommandGetState:
		return immediate(s.handleGetState(req.WindowID, entry.Manager))
	case CommandRequestAuth:
		return s.handleRequestAuth(entry.Auth, req.Payload)
	case CommandResolveAuth:
		return immediate(s.handleResolveAuth(entry.Auth, req.Payload))
	default:
		return immediate(NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command)))
	}
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleCreateView(m *shell.Manager, payload json.RawMessage) *Response {
	var p CreateViewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}
	notify := true
	if p.Notify != nil {
		notify = *p.Notify
	}

	v, err := m.Create(shell.CreateDetails{URL: p.URL}, p.IsNext, notify)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to create view: %v", err))
	}
	return okResponse(CreatedData{ID: v.ID()})
}

func (s *Server) handleCreateViews(m *shell.Manager, payload json.RawMessage) *Response {
	var p CreateViewsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}

	ids := make([]int, 0, len(p.URLs))
	for _, url := range p.URLs {
		v, err := m.Create(shell.CreateDetails{URL: url}, false, true)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to create view for %q: %v", url, err))
		}
		ids = append(ids, v.ID())
	}
	return okResponse(CreatedManyData{IDs: ids})
}

// handleAddTab is the fire-and-forget "open new tab" path: create, announce,
// and select the new tab so it is immediately visible.
func (s *Server) handleAddTab(m *shell.Manager, payload json.RawMessage) *Response {
	var p CreateViewPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid add payload: %v", err))
		}
	}

	v, err := m.Create(shell.CreateDetails{URL: p.URL}, p.IsNext, true)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to add tab: %v", err))
	}
	m.Select(v.ID(), true)
	return okResponse(CreatedData{ID: v.ID()})
}

func (s *Server) handleSelectView(m *shell.Manager, payload json.RawMessage) *Response {
	var p SelectViewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid select payload: %v", err))
	}
	focus := true
	if p.Focus != nil {
		focus = *p.Focus
	}
	m.Select(p.ID, focus)
	return okResponse(nil)
}

func (s *Server) handleDestroyView(m *shell.Manager, payload json.RawMessage) *Response {
	var p DestroyViewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid destroy payload: %v", err))
	}
	m.Destroy(p.ID)
	return okResponse(nil)
}

func (s *Server) handleMuteView(m *shell.Manager, payload json.RawMessage) *Response {
	var p MuteViewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid mute payload: %v", err))
	}
	m.SetMuted(p.ID, p.Muted)
	return okResponse(nil)
}

func (s *Server) handleChangeZoom(m *shell.Manager, payload json.RawMessage) *Response {
	var p ChangeZoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid zoom payload: %v", err))
	}

	var dir shell.ZoomDirection
	switch p.Direction {
	case "in":
		dir = shell.ZoomIn
	case "out":
		dir = shell.ZoomOut
	default:
		return NewErrorResponse(fmt.Sprintf("Invalid zoom direction: %q", p.Direction))
	}

	applied := m.ChangeZoom(dir)
	return s.zoomResponse(m, applied)
}

func (s *Server) zoomResponse(m *shell.Manager, applied bool) *Response {
	factor := 0.0
	if v, ok := m.View(m.SelectedID()); ok {
		factor = v.ZoomFactor()
	}
	return okResponse(ZoomData{Factor: factor, Applied: applied})
}

func (s *Server) handleSetFullscreen(m *shell.Manager, payload json.RawMessage) *Response {
	var p SetFullscreenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid fullscreen payload: %v", err))
	}
	m.SetFullscreen(p.Fullscreen)
	return okResponse(nil)
}

func (s *Server) handleGetState(windowID uint32, m *shell.Manager) *Response {
	views := m.Views()
	infos := make([]ViewInfo, len(views))
	for i, v := range views {
		b := v.Bounds()
		infos[i] = ViewInfo{
			ID:     v.ID(),
			URL:    v.URL(),
			Title:  v.Title(),
			Zoom:   v.ZoomFactor(),
			Muted:  v.Muted(),
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width,
			Height: b.Height,
		}
	}

	return okResponse(StateData{
		WindowID:   windowID,
		Selected:   m.SelectedID(),
		Fullscreen: m.Fullscreen(),
		Incognito:  m.Incognito(),
		Views:      infos,
	})
}

// handleRequestAuth registers the pending request on the dispatch loop, then
// lets the connection goroutine wait for the response event so dispatch never
// blocks on a suspended caller.
func (s *Server) handleRequestAuth(bridge *auth.Bridge, payload json.RawMessage) result {
	var p RequestAuthPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return immediate(NewErrorResponse(fmt.Sprintf("Invalid auth payload: %v", err)))
	}

	ch := bridge.Request(p.URL)
	return result{wait: func() *Response {
		creds, ok := <-ch
		if !ok {
			return okResponse(AuthData{Canceled: true})
		}
		return okResponse(AuthData{Username: creds.Username, Password: creds.Password})
	}}
}

func (s *Server) handleResolveAuth(bridge *auth.Bridge, payload json.RawMessage) *Response {
	var p ResolveAuthPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid auth payload: %v", err))
	}
	if !bridge.Pending() {
		return NewErrorResponse("No pending auth request")
	}
	bridge.Resolve(auth.Credentials{Username: p.Username, Password: p.Password})
	return okResponse(nil)
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		WindowCount:   s.registry.WindowCount(),
		ViewCount:     s.registry.ViewCount(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	return okResponse(status)
}

// handleReload re-reads the configuration and pushes the new layout/zoom
// policy to every manager.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	s.registry.ApplyConfig(shell.Config{
		ToolbarHeight: newCfg.ToolbarHeight,
		ZoomMin:       newCfg.Zoom.Min,
		ZoomMax:       newCfg.Zoom.Max,
		ZoomStep:      newCfg.Zoom.Step,
	})

	// Notify the daemon main loop (non-blocking).
	if s.reloadChan != nil {
		select {
		case s.reloadChan <- struct{}{}:
		default:
		}
	}

	log.Println("IPC: Config reloaded successfully")
	return okResponse(nil)
}

// GetConfig returns the current config (thread-safe).
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Stop gracefully shuts down the IPC server.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
