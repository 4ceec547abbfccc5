// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"

	"github.com/AccelByte/extend-gamification-engine/internal/app"
	"github.com/AccelByte/extend-gamification-engine/internal/config"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Infof("starting app server..")

	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize application: %v", err)
	}

	logrus.Infof("app server started")
	if err := a.Run(ctx); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
