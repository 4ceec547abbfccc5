// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Run starts all components and blocks until a termination signal is
// received, then performs graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	a.supervisor.Start()

	if err := a.adapter.Start(ctx); err != nil {
		return err
	}
	logrus.Info("stream adapter consuming lifecycle announcements")

	<-ctx.Done()
	logrus.Info("termination signal received")

	return a.Shutdown()
}

// Shutdown stops all components in reverse dependency order: stop
// consuming new messages first, then drain running games, then tear
// down the servers and connections.
func (a *App) Shutdown() error {
	logrus.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.adapter.Stop()

	if err := a.supervisor.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("supervisor shutdown error: %v", err)
	}

	if err := a.source.Close(); err != nil {
		logrus.Errorf("stream source close error: %v", err)
	}

	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(shutdownCtx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	if err := a.redisClient.Close(); err != nil {
		logrus.Errorf("Redis client close error: %v", err)
	}

	logrus.Info("application stopped")
	return nil
}
