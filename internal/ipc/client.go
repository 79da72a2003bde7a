package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/kestrelbrowser/kestrel/internal/runtimepath"
)

// Client handles IPC communication with the shell daemon. A zero window ID
// targets the daemon's only window.
type Client struct {
	socketPath string
	timeout    time.Duration
	windowID   uint32
}

// NewClient creates a new IPC client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientForSocket creates a client for an explicit socket path.
func NewClientForSocket(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// SetWindow scopes subsequent requests to the given window identity.
func (c *Client) SetWindow(windowID uint32) { c.windowID = windowID }

// sendRequest sends a request and waits for a response.
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) send(cmd CommandType, payload interface{}) (*Response, error) {
	req := &Request{WindowID: c.windowID, Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return c.sendRequest(req)
}

// CreateView creates a new view and returns its ID.
func (c *Client) CreateView(url string, isNext bool) (int, error) {
	resp, err := c.send(CommandCreateView, CreateViewPayload{URL: url, IsNext: isNext})
	if err != nil {
		return 0, err
	}
	var data CreatedData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse create data: %w", err)
	}
	return data.ID, nil
}

// CreateViews creates views for each URL and returns their IDs in order.
func (c *Client) CreateViews(urls []string) ([]int, error) {
	resp, err := c.send(CommandCreateViews, CreateViewsPayload{URLs: urls})
	if err != nil {
		return nil, err
	}
	var data CreatedManyData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse create data: %w", err)
	}
	return data.IDs, nil
}

// AddTab opens a user-visible new tab and selects it.
func (c *Client) AddTab(url string) (int, error) {
	resp, err := c.send(CommandAddTab, CreateViewPayload{URL: url})
	if err != nil {
		return 0, err
	}
	var data CreatedData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse add data: %w", err)
	}
	return data.ID, nil
}

// SelectView selects a view; focus=false keeps focus on the window chrome.
func (c *Client) SelectView(id int, focus bool) error {
	_, err := c.send(CommandSelectView, SelectViewPayload{ID: id, Focus: &focus})
	return err
}

// DestroyView destroys a view by ID.
func (c *Client) DestroyView(id int) error {
	_, err := c.send(CommandDestroyView, DestroyViewPayload{ID: id})
	return err
}

// MuteView sets a view's audio-mute flag.
func (c *Client) MuteView(id int, muted bool) error {
	_, err := c.send(CommandMuteView, MuteViewPayload{ID: id, Muted: muted})
	return err
}

// ClearViews tears down every view in the window.
func (c *Client) ClearViews() error {
	_, err := c.send(CommandClearViews, nil)
	return err
}

// ChangeZoom adjusts zoom one step; direction is "in" or "out".
func (c *Client) ChangeZoom(direction string) (*ZoomData, error) {
	resp, err := c.send(CommandChangeZoom, ChangeZoomPayload{Direction: direction})
	if err != nil {
		return nil, err
	}
	var data ZoomData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse zoom data: %w", err)
	}
	return &data, nil
}

// ResetZoom returns the selected view to the default zoom factor.
func (c *Client) ResetZoom() (*ZoomData, error) {
	resp, err := c.send(CommandResetZoom, nil)
	if err != nil {
		return nil, err
	}
	var data ZoomData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse zoom data: %w", err)
	}
	return &data, nil
}

// Print invokes print on the selected view.
func (c *Client) Print() error {
	_, err := c.send(CommandPrint, nil)
	return err
}

// SetFullscreen toggles the window's fullscreen layout.
func (c *Client) SetFullscreen(fullscreen bool) error {
	_, err := c.send(CommandSetFullscreen, SetFullscreenPayload{Fullscreen: fullscreen})
	return err
}

// GetState retrieves the window's tab state.
func (c *Client) GetState() (*StateData, error) {
	resp, err := c.send(CommandGetState, nil)
	if err != nil {
		return nil, err
	}
	var data StateData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}
	return &data, nil
}

// GetStatus retrieves daemon status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.send(CommandGetStatus, nil)
	if err != nil {
		return nil, err
	}
	var data StatusData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &data, nil
}

// Reload asks the daemon to re-read its configuration.
func (c *Client) Reload() error {
	_, err := c.send(CommandReload, nil)
	return err
}

// RequestAuth starts a modal auth request and blocks until the user responds
// or the request is superseded.
func (c *Client) RequestAuth(url string) (*AuthData, error) {
	// Auth responses arrive whenever the user answers; no deadline here.
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(RequestAuthPayload{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	reqData, err := json.Marshal(&Request{WindowID: c.windowID, Command: CommandRequestAuth, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	var data AuthData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse auth data: %w", err)
	}
	return &data, nil
}

// ResolveAuth delivers the user's credentials to the pending auth request.
func (c *Client) ResolveAuth(username, password string) error {
	_, err := c.send(CommandResolveAuth, ResolveAuthPayload{Username: username, Password: password})
	return err
}

// Ping checks if the daemon is responding.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
