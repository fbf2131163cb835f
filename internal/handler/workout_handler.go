package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/service"
)

type stepFunc func(ctx context.Context) (*service.StepResult, *apperrors.APIError)

type WorkoutHandler struct {
	workoutService *service.WorkoutService
}

type startRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

type repsRequest struct {
	Delta int `json:"delta"`
}

func NewWorkoutHandler(workoutService *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

func (h *WorkoutHandler) Exercises(c *gin.Context) {
	writeOK(c, "exercises", h.workoutService.Exercises())
}

// Start accepts an empty body, which selects the default duration.
func (h *WorkoutHandler) Start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	session, apiErr := h.workoutService.Start(c.Request.Context(), req.DurationMinutes)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "session", session)
}

func (h *WorkoutHandler) Session(c *gin.Context) {
	session, apiErr := h.workoutService.Session(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "session", session)
}

func (h *WorkoutHandler) Advance(c *gin.Context) {
	h.writeStep(c, h.workoutService.Advance)
}

func (h *WorkoutHandler) Skip(c *gin.Context) {
	h.writeStep(c, h.workoutService.Skip)
}

func (h *WorkoutHandler) Complete(c *gin.Context) {
	h.writeStep(c, h.workoutService.Complete)
}

func (h *WorkoutHandler) Cancel(c *gin.Context) {
	h.writeStep(c, h.workoutService.Cancel)
}

func (h *WorkoutHandler) AdjustReps(c *gin.Context) {
	var req repsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, apiErr := h.workoutService.AdjustReps(c.Request.Context(), req.Delta)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "result", result)
}

func (h *WorkoutHandler) History(c *gin.Context) {
	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.workoutService.History(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "sessions", sessions)
}

func (h *WorkoutHandler) writeStep(c *gin.Context, step stepFunc) {
	result, apiErr := step(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "result", result)
}
