// plcbridge is a native back-end service bridging a desktop application to
// industrial PLCs over Modbus TCP and RTU: a connection manager, a 1ms
// periodic poll scheduler, a typed value codec, and a typed event emitter.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"plcbridge/internal/config"
	"plcbridge/internal/events"
	"plcbridge/internal/logger"
	"plcbridge/internal/runtime"
)

var version = "2.0.0"

const shutdownGrace = 5 * time.Second

func main() {
	log := logger.New("info")
	logger.Logger = log
	log.Infof("plcbridge v%s starting", version)

	cfg, loader, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := loader.Watch(func(updated *config.Config) {
		log.Infof("config reloaded, log level now %s", updated.LogLevel)
		logger.SetLevel(updated.LogLevel)
	}); err != nil {
		log.Warnf("config hot-reload disabled: %v", err)
	}
	defer loader.Close()

	rt := runtime.New(cfg, log, events.NewLogSink(log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.Start(ctx)
	log.Info("scheduler started")

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
