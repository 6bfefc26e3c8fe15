package router

import (
	"net/http"

	"github.com/prabhucts/pmo/api"
	httpapi "github.com/prabhucts/pmo/internal/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router wires every handler under /api. An empty origins list allows any
// origin.
func Router(h *httpapi.Handler, origins []string) *gin.Engine {
	r := gin.Default()

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/openapi.yml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/x-yaml", api.OpenAPISpec)
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/openapi.yml"),
	))

	r.GET("/health", h.Health)

	g := r.Group("/api")

	g.POST("/uploads/:kind", h.Upload)

	g.GET("/insights", h.InsightList)
	g.GET("/insights/generate", h.InsightGenerate)
	g.POST("/insights/generate", h.InsightGenerate)
	g.PATCH("/insights/:id/resolve", h.InsightResolve)

	g.GET("/rules", h.RuleList)
	g.POST("/rules", h.RuleCreate)
	g.PUT("/rules/:id", h.RuleUpdate)
	g.DELETE("/rules/:id", h.RuleDelete)

	g.GET("/projects", h.ProjectList)
	g.POST("/projects", h.ProjectCreate)
	g.GET("/projects/:id", h.ProjectGet)
	g.GET("/projects/:id/summary", h.ProjectSummary)
	g.GET("/projects/:id/overrun", h.ProjectOverrun)
	g.GET("/projects/:id/forecast", h.ProjectForecast)

	g.GET("/teams/:id/utilization", h.TeamUtilization)
	g.GET("/features/:id/hours", h.FeatureHours)
	g.GET("/members/:id/clarity-allocation", h.MemberClarityAllocation)

	g.GET("/sprints", h.SprintList)
	g.POST("/sprints", h.SprintCreate)
	g.GET("/sprints/active", h.SprintActive)

	g.GET("/dashboard/summary", h.DashboardSummary)

	g.POST("/chat/message", h.ChatMessage)
	g.GET("/chat/history/:session_id", h.ChatHistory)

	g.GET("/templates/list", h.TemplateList)
	g.GET("/templates/download/:id", h.TemplateDownload)

	return r
}
