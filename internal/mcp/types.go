package mcp

// OpenTabInput is the input for the open_tab tool.
type OpenTabInput struct {
	URL      string `json:"url" jsonschema:"required,URL to load in the new tab"`
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// OpenTabOutput is the output for the open_tab tool.
type OpenTabOutput struct {
	ID int `json:"id"`
}

// ListTabsInput is the input for the list_tabs tool.
type ListTabsInput struct {
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// TabInfo describes one tab.
type TabInfo struct {
	ID       int     `json:"id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Zoom     float64 `json:"zoom"`
	Muted    bool    `json:"muted"`
	Selected bool    `json:"selected"`
}

// ListTabsOutput is the output for the list_tabs tool.
type ListTabsOutput struct {
	Tabs       []TabInfo `json:"tabs"`
	Selected   int       `json:"selected"`
	Fullscreen bool      `json:"fullscreen"`
	Incognito  bool      `json:"incognito"`
}

// SelectTabInput is the input for the select_tab tool.
type SelectTabInput struct {
	ID       int    `json:"id" jsonschema:"required,Tab ID to select"`
	Focus    *bool  `json:"focus,omitempty" jsonschema:"Give the page keyboard focus (default: true). False keeps focus on the toolbar."`
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// CloseTabInput is the input for the close_tab tool.
type CloseTabInput struct {
	ID       int    `json:"id" jsonschema:"required,Tab ID to close"`
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// SetZoomInput is the input for the set_zoom tool.
type SetZoomInput struct {
	Direction string `json:"direction" jsonschema:"required,Zoom adjustment: in / out / reset"`
	WindowID  uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// SetZoomOutput is the output for the set_zoom tool.
type SetZoomOutput struct {
	Factor  float64 `json:"factor"`
	Applied bool    `json:"applied"`
}

// MuteTabInput is the input for the mute_tab tool.
type MuteTabInput struct {
	ID       int    `json:"id" jsonschema:"required,Tab ID to mute or unmute"`
	Muted    bool   `json:"muted" jsonschema:"required,True mutes the tab's audio"`
	WindowID uint32 `json:"window_id,omitempty" jsonschema:"Target window ID (default: the only window)"`
}

// ShellStatusInput is the input for the shell_status tool.
type ShellStatusInput struct{}

// ShellStatusOutput is the output for the shell_status tool.
type ShellStatusOutput struct {
	WindowCount   int   `json:"window_count"`
	ViewCount     int   `json:"view_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}
