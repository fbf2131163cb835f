package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"habittracker/backend/internal/calendar"
	"habittracker/backend/internal/config"
	"habittracker/backend/internal/db"
	"habittracker/backend/internal/handler"
	"habittracker/backend/internal/logging"
	"habittracker/backend/internal/metrics"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/restday"
	"habittracker/backend/internal/router"
	"habittracker/backend/internal/service"
	"habittracker/backend/internal/workout"
)

func main() {
	cfg := config.Load()
	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFile,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogJSON,
	})

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	table := restday.DefaultTable()
	if cfg.RestTablePath != "" {
		if table, err = restday.LoadTable(cfg.RestTablePath); err != nil {
			log.Fatalf("load rest-day table: %v", err)
		}
	}
	if !table.Monotonic() {
		log.Debugln("rest-day table is not monotonic: a higher quota does not always keep the lower quota's days")
	}

	catalog, err := workout.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = workout.LoadCatalog(cfg.CatalogPath)
	}
	if err != nil {
		log.Fatalf("load exercise catalog: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("habits", "server", registry)

	kvRepo := repository.NewKVRepository(database)
	workoutRepo := repository.NewWorkoutRepository(database)
	classifier := restday.NewClassifier(table)

	authService, err := service.NewAuthService(cfg.OwnerPassphraseHash, cfg.OwnerPassphrase, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("configure auth: %v", err)
	}
	keeper := service.NewStreakKeeper(kvRepo, classifier, metricsManager, service.StreakOptions{
		Location:         cfg.Location,
		WeekStart:        cfg.WeekStart,
		FallbackCapacity: cfg.FallbackCapacity,
		DefaultRestQuota: cfg.DefaultRestQuota,
		PersistFullState: cfg.PersistFullState,
	})
	if !cfg.PersistFullState {
		log.Warnln("only the last workout date is persisted; streak and fallbacks reset on restart")
	}
	habitService := service.NewHabitService(keeper, classifier, calendar.NewGridCache(cfg.GridCacheMB))
	workoutService := service.NewWorkoutService(keeper, workoutRepo, catalog)

	engine := router.New(router.Params{
		AuthService:    authService,
		AuthHandler:    handler.NewAuthHandler(authService),
		HabitHandler:   handler.NewHabitHandler(habitService),
		WorkoutHandler: handler.NewWorkoutHandler(workoutService),
		Metrics:        metricsManager,
		Gatherer:       registry,
		CORSOrigins:    cfg.CORSOrigins,
	})

	log.Infof("backend listening on :%s (week starts %s, timezone %s)", cfg.Port, cfg.WeekStart, cfg.Location)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
