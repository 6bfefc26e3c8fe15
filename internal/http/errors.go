package httpapi

import (
	"errors"
	"net/http"

	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func (h *Handler) writeSerErr(c *gin.Context, err error) {
	var serr *service.Error
	if errors.As(err, &serr) {
		c.JSON(mapSerErrToStatus(serr.Code), ErrorResponse{
			Error: ErrorBody{
				Code:    string(serr.Code),
				Message: serr.Msg,
			},
		})
		return
	}

	h.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorBody{
			Code:    "INTERNAL",
			Message: "internal server error",
		},
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{
			Code:    string(service.ErrorCodeInvalidRequest),
			Message: msg,
		},
	})
}

func mapSerErrToStatus(code service.ErrorCode) int {
	switch code {
	case service.ErrorCodeMissingColumns,
		service.ErrorCodeInvalidFile,
		service.ErrorCodeInvalidRequest:
		return http.StatusBadRequest
	case service.ErrorCodeRuleExists:
		return http.StatusConflict
	case service.ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
