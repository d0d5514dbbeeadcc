package main

import (
	"context"
	"log"

	"companion-game-be/internal/bootstrap"
	"companion-game-be/internal/config"
	"companion-game-be/internal/server"
	"companion-game-be/internal/tracer"
	"companion-game-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	go func() {
		log.Println("Background: Starting Onboarding Consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if container.CacheInvalidationService != nil {
		if err := container.CacheInvalidationService.Start(); err != nil {
			log.Printf("Cache Invalidation Listener Error: %v", err)
		}
	}

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
