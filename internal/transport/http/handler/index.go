package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"laolaw-rag/internal/rag"
	"laolaw-rag/internal/transport/http/response"
)

type IndexBuilder interface {
	BuildIndex(ctx context.Context, directory string) (*rag.BuildReport, error)
}

type IndexHandler struct {
	builder IndexBuilder
}

type BuildIndexRequest struct {
	Directory string `json:"directory"`
}

func NewIndexHandler(builder IndexBuilder) *IndexHandler {
	return &IndexHandler{builder: builder}
}

// Build rebuilds the index. An empty body rebuilds from the configured source
// directory; a directory must lie inside it.
func (h *IndexHandler) Build(c *gin.Context) {
	var req BuildIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	report, err := h.builder.BuildIndex(c.Request.Context(), req.Directory)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, report)
}
