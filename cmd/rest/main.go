package main

import (
	"context"
	"log"

	"fitcoach-be/internal/bootstrap"
	"fitcoach-be/internal/config"
	"fitcoach-be/internal/server"
	"fitcoach-be/internal/tracer"
	"fitcoach-be/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Dependency container
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Background indexing workers
	go func() {
		log.Println("Background: starting indexing workers...")
		if err := container.IndexerService.Run(context.Background()); err != nil {
			log.Printf("Background indexer error: %v", err)
		}
	}()

	// 5. HTTP server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
