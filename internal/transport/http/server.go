package http

import (
	"github.com/gin-gonic/gin"

	"laolaw-rag/internal/bootstrap"
	"laolaw-rag/internal/transport/http/handler"
)

// Handlers groups the route handlers of the API.
type Handlers struct {
	QA     *handler.QAHandler
	Index  *handler.IndexHandler
	Health *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	return NewEngine(Handlers{
		QA:     handler.NewQAHandler(app.QA, app.History),
		Index:  handler.NewIndexHandler(app.QA),
		Health: handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, app.HealthChecks()),
	})
}

func NewEngine(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", h.Health.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/ask", h.QA.Ask)
	v1.GET("/history", h.QA.History)
	v1.POST("/index/build", h.Index.Build)

	return router
}
