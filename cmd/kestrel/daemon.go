package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrelbrowser/kestrel/internal/auth"
	"github.com/kestrelbrowser/kestrel/internal/config"
	"github.com/kestrelbrowser/kestrel/internal/dialog"
	"github.com/kestrelbrowser/kestrel/internal/ipc"
	"github.com/kestrelbrowser/kestrel/internal/shell"
	"github.com/kestrelbrowser/kestrel/internal/view"
	"github.com/kestrelbrowser/kestrel/internal/x11"
)

// authPrompt surfaces pending credential requests. The shared auth dialog is
// shown and the request is logged; credentials arrive via RESOLVE_AUTH.
type authPrompt struct {
	dialogs *dialog.Set
}

func (p *authPrompt) Present(url string) {
	if c, ok := p.dialogs.Controller(dialog.Auth); ok {
		c.Show()
		c.BringToTop()
	}
	log.Printf("Credentials requested for %s (resolve with 'kestrel auth resolve')", url)
}

func runDaemon(incognito bool) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (toolbar: %dpx, zoom: %.2f-%.2f step %.2f)",
		cfg.ToolbarHeight, cfg.Zoom.Min, cfg.Zoom.Max, cfg.Zoom.Step)

	slogLevel := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	}))

	// Connect to the display server
	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to X11: %v", err)
	}
	defer conn.Close()

	title := cfg.WindowTitle
	if incognito {
		title += " (incognito)"
	}
	window, err := x11.CreateShellWindow(conn, title, 1280, 800, cfg.ToolbarHeight)
	if err != nil {
		log.Fatalf("Failed to create shell window: %v", err)
	}
	defer window.Destroy()
	log.Printf("Shell window created (id: %d)", window.ID())

	// Dialog set: one tracked controller per dialog kind plus the preview
	controllers := make(map[dialog.Kind]dialog.Controller)
	for _, k := range dialog.Kinds() {
		controllers[k] = dialog.NewTracked()
	}
	dialogs := dialog.NewSet(controllers, dialog.NewTracked(), window)

	factory := x11.NewRendererFactory(conn, cfg.Renderer.Command, cfg.Renderer.Args,
		time.Duration(cfg.Renderer.AdoptTimeoutMS)*time.Millisecond)

	manager := shell.NewManager(window, dialogs, factory, shell.Config{
		ToolbarHeight: cfg.ToolbarHeight,
		ZoomMin:       cfg.Zoom.Min,
		ZoomMax:       cfg.Zoom.Max,
		ZoomStep:      cfg.Zoom.Step,
		Incognito:     incognito,
	})

	bridge := auth.NewBridge(&authPrompt{dialogs: dialogs})

	registry := shell.NewRegistry()
	registry.Add(window.ID(), &shell.Entry{Manager: manager, Auth: bridge})

	// Config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	ipcServer, err := ipc.NewServer(cfg, registry, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// New surfaces start hidden; they become visible only when selected.
	manager.SetSurfaceRegistrar(func(s view.Surface) {
		if err := s.Hide(); err != nil {
			log.Printf("Warning: failed to hide new surface: %v", err)
		}
	})

	// Window resizes land on the dispatch loop as bounds recomputes.
	window.OnResize(func() {
		ipcServer.Submit(manager.FixBounds)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ipcServer.Run(ctx)

	// Reconciler sweeps views whose renderer died without a DestroyNotify
	// reaching us (e.g. a renderer crash during daemon startup).
	if cfg.ReconcileEnabled() {
		reconciler := shell.NewReconciler(shell.ReconcilerConfig{
			Interval: time.Duration(cfg.Reconcile.IntervalSeconds) * time.Second,
			Logger:   logger,
		}, registry, ipcServer.Submit)
		reconciler.ReconcileNow()
		go reconciler.Run(ctx)
	}

	// Signal handling and config reloads
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					ipcServer.Submit(func() {
						registry.ApplyConfig(shell.Config{
							ToolbarHeight: newCfg.ToolbarHeight,
							ZoomMin:       newCfg.Zoom.Min,
							ZoomMax:       newCfg.Zoom.Max,
							ZoomStep:      newCfg.Zoom.Step,
						})
					})
					log.Println("Config reloaded successfully")

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down kestrel daemon...")
					ipcServer.Submit(manager.Clear)
					cancel()
					ipcServer.Stop()
					conn.Quit()
					return
				}

			case <-reloadChan:
				// Config already applied by the IPC RELOAD handler.
				log.Println("Configuration reloaded via IPC")
			}
		}
	}()

	log.Println("Entering event loop...")
	conn.EventLoop()
}
