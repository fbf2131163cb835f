package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "habittracker/backend/internal/errors"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

// bindJSON decodes the body into req and answers 400 when it cannot.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return false
	}
	return true
}

// bindVersioned decodes a body carrying a baseVersion and requires it to be positive.
func bindVersioned(c *gin.Context, req interface{ version() int }) bool {
	if !bindJSON(c, req) {
		return false
	}
	if req.version() <= 0 {
		writeError(c, apperrors.BadRequest("invalid_base_version", "baseVersion is required"))
		return false
	}
	return true
}

func writeOK(c *gin.Context, key string, value interface{}) {
	c.JSON(http.StatusOK, gin.H{key: value})
}
