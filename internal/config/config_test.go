package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Zoom.Max != 3.0 || cfg.Zoom.Step != 0.1 {
		t.Fatalf("unexpected default zoom config: %+v", cfg.Zoom)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ToolbarHeight != DefaultConfig().ToolbarHeight {
		t.Fatalf("expected default toolbar height, got %d", cfg.ToolbarHeight)
	}
}

func TestLoadFromPath_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "toolbar_height: 48\nzoom:\n  min: 0.5\n  max: 2.0\n  step: 0.25\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ToolbarHeight != 48 {
		t.Fatalf("expected toolbar_height 48, got %d", cfg.ToolbarHeight)
	}
	if cfg.Zoom.Step != 0.25 {
		t.Fatalf("expected zoom step 0.25, got %g", cfg.Zoom.Step)
	}
	// Untouched keys keep their defaults.
	if cfg.Renderer.Command != "kestrel-renderer" {
		t.Fatalf("expected default renderer command, got %q", cfg.Renderer.Command)
	}
}

func TestLoadFromPath_RejectsInvertedZoomRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "zoom:\n  min: 2.0\n  max: 1.5\n  step: 0.1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "zoom.min") {
		t.Fatalf("expected zoom range error, got %v", err)
	}
}

func TestValidate_ZoomRangeMustIncludeDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Zoom.Min = 1.5
	cfg.Zoom.Max = 3.0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for range excluding 1.0")
	}
}

func TestReconcileEnabled_DefaultsOn(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.ReconcileEnabled() {
		t.Fatalf("expected reconcile enabled by default")
	}
	off := false
	cfg.Reconcile.Enabled = &off
	if cfg.ReconcileEnabled() {
		t.Fatalf("expected reconcile disabled")
	}
}
