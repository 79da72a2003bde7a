// Package tui is an interactive tab switcher for the running daemon.
package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/kestrelbrowser/kestrel/internal/ipc"
)

// Run starts the tab switcher, blocking until the user quits.
func Run(windowID uint32) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	client := ipc.NewClient()
	client.SetWindow(windowID)
	if err := client.Ping(); err != nil {
		return err
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
