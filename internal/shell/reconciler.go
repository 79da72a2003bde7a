package shell

import (
	"context"
	"log/slog"
	"time"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically sweeps views whose surfaces died without delivering
// a destroy event, correcting state drift between the view map and the
// windows actually alive on screen.
type Reconciler struct {
	interval time.Duration
	registry *Registry
	submit   func(func())
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. submit schedules work onto the dispatch
// loop that owns the registry; the reconciler never touches managers from its
// own goroutine.
func NewReconciler(cfg ReconcilerConfig, registry *Registry, submit func(func())) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		interval: interval,
		registry: registry,
		submit:   submit,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile schedules a single sweep pass.
func (r *Reconciler) reconcile() {
	r.submit(func() {
		// Recover from panics to prevent crashing the daemon.
		defer func() {
			if err := recover(); err != nil {
				r.logger.Error("reconciler panic recovered", "error", err)
			}
		}()

		if dropped := r.registry.SweepDead(); dropped > 0 {
			r.logger.Info("reconciler: dropped dead views", "count", dropped)
		}
	})
}

// ReconcileNow triggers an immediate sweep pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
