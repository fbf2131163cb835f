package main

import (
	log "github.com/sirupsen/logrus"

	"habittracker/backend/internal/config"
	"habittracker/backend/internal/db"
	"habittracker/backend/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(logging.SetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
	})

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	log.Infof("migrations applied successfully to %s", cfg.DBPath)
}
