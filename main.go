package main

import (
	"fmt"
	"log"
	"os"

	"github.com/nunocpr/PersonalFinance/internal/config"
	"github.com/nunocpr/PersonalFinance/internal/database"
	"github.com/nunocpr/PersonalFinance/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; environment variables override config.yaml
	_ = godotenv.Load()

	configPath := os.Getenv("PF_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	r := router.Setup(cfg, db)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
