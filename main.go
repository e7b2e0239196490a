package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snaplink/snaplink/config"
	db "github.com/snaplink/snaplink/internal/database"
	route "github.com/snaplink/snaplink/internal/routes"
	"github.com/snaplink/snaplink/internal/tracing"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

	secrets, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(
			"error loading configuration",
			zap.Error(err),
		)
	}

	shutdownTracer, err := tracing.InitTracer(context.Background())
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				logger.Error("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	redisClient, err := db.NewRedisClient(secrets)
	if err != nil {
		logger.Fatal("redis failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("redis connection established")

	pgClient, err := db.NewPostgresClient(secrets)
	if err != nil {
		logger.Fatal("postgres failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("postgres connection established")

	r := route.SetupRouter(secrets, redisClient, pgClient)
	logger.Info("starting server", zap.String("addr", secrets.HTTPAddr))
	if err := r.Run(secrets.HTTPAddr); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
