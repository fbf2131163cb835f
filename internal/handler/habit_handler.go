package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
}

type versionRequest struct {
	BaseVersion int `json:"baseVersion"`
}

func (r *versionRequest) version() int { return r.BaseVersion }

type restQuotaRequest struct {
	BaseVersion int  `json:"baseVersion"`
	RestQuota   *int `json:"restQuota"`
}

func (r *restQuotaRequest) version() int { return r.BaseVersion }

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func (h *HabitHandler) GetState(c *gin.Context) {
	state, apiErr := h.habitService.GetState(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "state", state)
}

func (h *HabitHandler) SetRestQuota(c *gin.Context) {
	var req restQuotaRequest
	if !bindVersioned(c, &req) {
		return
	}
	if req.RestQuota == nil {
		writeError(c, apperrors.BadRequest("invalid_rest_quota", "restQuota is required"))
		return
	}

	state, apiErr := h.habitService.SetRestQuota(c.Request.Context(), req.BaseVersion, *req.RestQuota)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "state", state)
}

func (h *HabitHandler) Reset(c *gin.Context) {
	var req versionRequest
	if !bindVersioned(c, &req) {
		return
	}

	state, apiErr := h.habitService.Reset(c.Request.Context(), req.BaseVersion)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "state", state)
}

func (h *HabitHandler) Calendar(c *gin.Context) {
	view, apiErr := h.habitService.Calendar(c.Request.Context(), c.Query("month"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeOK(c, "calendar", view)
}
