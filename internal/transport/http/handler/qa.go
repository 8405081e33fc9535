package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laolaw-rag/internal/app"
	"laolaw-rag/internal/model"
	"laolaw-rag/internal/rag"
	"laolaw-rag/internal/transport/http/response"
)

type QuestionAnswerer interface {
	Ask(ctx context.Context, input app.AskInput) (*rag.Answer, error)
}

type HistoryLister interface {
	ListHistory(ctx context.Context, page, pageSize int) (*model.HistoryPage, error)
}

type QAHandler struct {
	qa      QuestionAnswerer
	history HistoryLister
}

type TurnRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AskRequest struct {
	Question string        `json:"question" binding:"required"`
	History  []TurnRequest `json:"history" binding:"max=50"`
}

func NewQAHandler(qa QuestionAnswerer, history HistoryLister) *QAHandler {
	return &QAHandler{qa: qa, history: history}
}

func (h *QAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	turns := make([]rag.Turn, len(req.History))
	for i, t := range req.History {
		turns[i] = rag.Turn{Question: t.Question, Answer: t.Answer}
	}
	answer, err := h.qa.Ask(c.Request.Context(), app.AskInput{Question: req.Question, History: turns})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, answer)
}

func (h *QAHandler) History(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid page")
		return
	}
	pageSize, err := queryInt(c, "page_size", 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid page_size")
		return
	}

	hp, err := h.history.ListHistory(c.Request.Context(), page, pageSize)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, hp)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
