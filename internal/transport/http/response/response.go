package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"laolaw-rag/internal/rag"
)

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeBuildInProgress    = 40900
	CodeInternalServer     = 50000
	CodeConfiguration      = 50001
	CodeIndexBuild         = 50002
	CodeRetrieval          = 50201
	CodeGeneration         = 50202
	CodeUpstreamTimeout    = 50400
	CodeServiceUnavailable = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// FromError writes the response for a pipeline error.
func FromError(c *gin.Context, err error) {
	status, code := Classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && code != CodeConfiguration {
		message = http.StatusText(status) + ": " + message
	}
	Error(c, status, code, message)
}

// Classify maps an error to its HTTP status and response code.
func Classify(err error) (int, int) {
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, rag.ErrBuildInProgress):
		return http.StatusConflict, CodeBuildInProgress
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeUpstreamTimeout
	case errors.Is(err, rag.ErrConfiguration):
		return http.StatusInternalServerError, CodeConfiguration
	case errors.Is(err, rag.ErrRetrieval):
		return http.StatusBadGateway, CodeRetrieval
	case errors.Is(err, rag.ErrGeneration):
		return http.StatusBadGateway, CodeGeneration
	case errors.Is(err, rag.ErrIndexBuild):
		return http.StatusInternalServerError, CodeIndexBuild
	default:
		return http.StatusInternalServerError, CodeInternalServer
	}
}
