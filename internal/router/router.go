package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"habittracker/backend/internal/handler"
	"habittracker/backend/internal/metrics"
	"habittracker/backend/internal/middleware"
	"habittracker/backend/internal/service"
)

type Params struct {
	AuthService    *service.AuthService
	AuthHandler    *handler.AuthHandler
	HabitHandler   *handler.HabitHandler
	WorkoutHandler *handler.WorkoutHandler
	Metrics        *metrics.Manager
	// Gatherer serves /metrics; nil leaves the endpoint out.
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

func New(p Params) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.LogRequest(), middleware.CORS(p.CORSOrigins))
	if p.Metrics != nil {
		engine.Use(middleware.RequestMetrics(p.Metrics))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if p.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/token", p.AuthHandler.Token)

	habit := api.Group("/habit")
	habit.Use(middleware.Auth(p.AuthService))
	habit.GET("/state", p.HabitHandler.GetState)
	habit.PUT("/rest-quota", p.HabitHandler.SetRestQuota)
	habit.GET("/calendar", p.HabitHandler.Calendar)
	habit.POST("/reset", p.HabitHandler.Reset)

	workout := api.Group("/workout")
	workout.Use(middleware.Auth(p.AuthService))
	workout.GET("/exercises", p.WorkoutHandler.Exercises)
	workout.POST("/start", p.WorkoutHandler.Start)
	workout.GET("/session", p.WorkoutHandler.Session)
	workout.POST("/advance", p.WorkoutHandler.Advance)
	workout.POST("/skip", p.WorkoutHandler.Skip)
	workout.POST("/complete", p.WorkoutHandler.Complete)
	workout.POST("/cancel", p.WorkoutHandler.Cancel)
	workout.POST("/reps", p.WorkoutHandler.AdjustReps)
	workout.GET("/history", p.WorkoutHandler.History)

	return engine
}
