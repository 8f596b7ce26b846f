package main

import (
	"context"

	"github.com/streamweave/streamweave/assistant/internal/config"
	"github.com/streamweave/streamweave/assistant/internal/telemetry"
)

var telemetryShutdown func(context.Context) error

func initTelemetry(ctx context.Context) error {
	shutdown, err := telemetry.Init(config.Load().Telemetry)
	if err != nil {
		return err
	}
	telemetryShutdown = shutdown
	return nil
}

func shutdownTelemetry(ctx context.Context) {
	if telemetryShutdown != nil {
		_ = telemetryShutdown(ctx)
	}
}
