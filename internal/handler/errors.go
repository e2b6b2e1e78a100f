package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/activity-backend-go/internal/service"
	"github.com/jengzang/activity-backend-go/pkg/response"
)

// respondError maps a service error onto an HTTP status
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *service.ActivityError
	if !errors.As(err, &ae) {
		response.InternalError(c, "internal error")
		return
	}

	code := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrStorage), errors.Is(err, service.ErrIntegrity):
		code = http.StatusInternalServerError
	}
	response.Fail(c, code, ae.Status, ae.Message)
}
