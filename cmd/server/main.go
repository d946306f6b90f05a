package main

import (
	"log"

	"chathub/internal/bootstrap"
	"chathub/internal/config"
	"chathub/internal/server"
	"chathub/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	srv := server.New(cfg, container)

	banner := color.New(color.FgHiCyan, color.Bold)
	banner.Printf("chathub :: %s environment, listening on port %s\n", cfg.App.Environment, cfg.App.Port)

	log.Fatal(srv.Run())
}
