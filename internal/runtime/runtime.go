// Package runtime aggregates the process's long-lived components behind a
// single value, replacing the lazy-static singletons the original backend
// used: one Manager, one Facade, one Scheduler, one Emitter, wired together
// once at startup and torn down together on shutdown.
package runtime

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"plcbridge/internal/config"
	"plcbridge/internal/events"
	"plcbridge/internal/facade"
	"plcbridge/internal/modbus"
	"plcbridge/internal/scheduler"
)

// Runtime owns every component constructed at startup and exposes them to
// whatever process embeds this module (a command surface, a test harness).
type Runtime struct {
	Config    *config.Config
	Manager   *modbus.Manager
	Facade    *facade.Facade
	Scheduler *scheduler.Scheduler
	Emitter   *events.Emitter

	log *logrus.Logger
}

// New wires a complete Runtime. sink receives every event the scheduler
// publishes; callers typically pass an events.LogSink or a transport-backed
// Sink of their own.
func New(cfg *config.Config, log *logrus.Logger, sink events.Sink) *Runtime {
	mgr := modbus.NewManager(log)
	f := facade.New(mgr)
	emitter := events.New(sink)
	sched := scheduler.New(log, f, emitter)

	return &Runtime{
		Config:    cfg,
		Manager:   mgr,
		Facade:    f,
		Scheduler: sched,
		Emitter:   emitter,
		log:       log,
	}
}

// Start launches the scheduler's dispatch loop under ctx.
func (r *Runtime) Start(ctx context.Context) {
	r.Scheduler.Start(ctx)
}

// Shutdown stops the scheduler, then disconnects every open connection
// (concurrently, via Manager.CloseAll), returning the first error from
// closing a connection. ctx does not bound how long closing takes.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.Scheduler.Stop()

	g, _ := errgroup.WithContext(ctx)
	g.Go(r.Manager.CloseAll)
	return g.Wait()
}
