package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types.
type CommandType string

const (
	CommandCreateView    CommandType = "CREATE_VIEW"
	CommandCreateViews   CommandType = "CREATE_VIEWS"
	CommandAddTab        CommandType = "ADD_TAB"
	CommandSelectView    CommandType = "SELECT_VIEW"
	CommandDestroyView   CommandType = "DESTROY_VIEW"
	CommandMuteView      CommandType = "MUTE_VIEW"
	CommandClearViews    CommandType = "CLEAR_VIEWS"
	CommandChangeZoom    CommandType = "CHANGE_ZOOM"
	CommandResetZoom     CommandType = "RESET_ZOOM"
	CommandPrint         CommandType = "PRINT"
	CommandSetFullscreen CommandType = "SET_FULLSCREEN"
	CommandGetState      CommandType = "GET_STATE"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandReload        CommandType = "RELOAD"
	CommandRequestAuth   CommandType = "REQUEST_AUTH"
	CommandResolveAuth   CommandType = "RESOLVE_AUTH"
)

// Request represents an IPC request from client to daemon. WindowID scopes
// the request to one shell window; 0 means "the only window" and is accepted
// when a single window is registered.
type Request struct {
	WindowID uint32          `json:"window_id,omitempty"`
	Command  CommandType     `json:"command"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from daemon to client.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// CreateViewPayload carries a single create request.
type CreateViewPayload struct {
	URL    string `json:"url"`
	IsNext bool   `json:"is_next,omitempty"`
	Notify *bool  `json:"notify,omitempty"` // default true
}

// CreateViewsPayload carries a batch create request.
type CreateViewsPayload struct {
	URLs []string `json:"urls"`
}

// SelectViewPayload selects a view by ID. Focus defaults to true; false
// keeps keyboard focus on the window chrome (programmatic switches).
type SelectViewPayload struct {
	ID    int   `json:"id"`
	Focus *bool `json:"focus,omitempty"`
}

// DestroyViewPayload destroys a view by ID.
type DestroyViewPayload struct {
	ID int `json:"id"`
}

// MuteViewPayload sets a view's audio-mute flag.
type MuteViewPayload struct {
	ID    int  `json:"id"`
	Muted bool `json:"muted"`
}

// ChangeZoomPayload adjusts zoom one step; Direction is "in" or "out".
type ChangeZoomPayload struct {
	Direction string `json:"direction"`
}

// SetFullscreenPayload toggles the window's fullscreen layout.
type SetFullscreenPayload struct {
	Fullscreen bool `json:"fullscreen"`
}

// RequestAuthPayload starts a modal auth request for a challenging URL.
type RequestAuthPayload struct {
	URL string `json:"url"`
}

// ResolveAuthPayload delivers the user's response to the pending auth
// request.
type ResolveAuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreatedData is returned by CREATE_VIEW.
type CreatedData struct {
	ID int `json:"id"`
}

// CreatedManyData is returned by CREATE_VIEWS, ordered like the request URLs.
type CreatedManyData struct {
	IDs []int `json:"ids"`
}

// ZoomData reports the zoom factor after an adjustment. Applied is false
// when the request was rejected at the clamp and the caller should not apply
// its default action.
type ZoomData struct {
	Factor  float64 `json:"factor"`
	Applied bool    `json:"applied"`
}

// AuthData is returned by REQUEST_AUTH. Canceled is true when the request
// was superseded by a newer one before a response arrived.
type AuthData struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Canceled bool   `json:"canceled,omitempty"`
}

// ViewInfo describes one live view in GET_STATE.
type ViewInfo struct {
	ID     int     `json:"id"`
	URL    string  `json:"url"`
	Title  string  `json:"title,omitempty"`
	Zoom   float64 `json:"zoom"`
	Muted  bool    `json:"muted,omitempty"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// StateData is returned by GET_STATE.
type StateData struct {
	WindowID   uint32     `json:"window_id"`
	Selected   int        `json:"selected"`
	Fullscreen bool       `json:"fullscreen"`
	Incognito  bool       `json:"incognito,omitempty"`
	Views      []ViewInfo `json:"views"`
}

// StatusData is returned by GET_STATUS.
type StatusData struct {
	WindowCount   int   `json:"window_count"`
	ViewCount     int   `json:"view_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("request has no command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
