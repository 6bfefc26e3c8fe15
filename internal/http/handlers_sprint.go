package httpapi

import (
	"net/http"

	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
)

type createSprintRequest struct {
	Name         string `json:"name"`
	Release      string `json:"release"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	SprintNumber int    `json:"sprint_number"`
	IsActive     bool   `json:"is_active"`
}

func (h *Handler) SprintList(c *gin.Context) {
	sprints, err := h.services.Sprints.List(c.Request.Context())
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	out := make([]SprintDTO, 0, len(sprints))
	for i := range sprints {
		out = append(out, toSprintDTO(&sprints[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SprintCreate(c *gin.Context) {
	var req createSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		badRequest(c, "end_date must be YYYY-MM-DD")
		return
	}

	sp, err := h.services.Sprints.Create(c.Request.Context(), service.CreateSprintInput{
		Name:         req.Name,
		Release:      req.Release,
		StartDate:    start,
		EndDate:      end,
		SprintNumber: req.SprintNumber,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSprintDTO(sp))
}

func (h *Handler) SprintActive(c *gin.Context) {
	sp, err := h.services.Sprints.Active(c.Request.Context())
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toSprintDTO(sp))
}

func (h *Handler) DashboardSummary(c *gin.Context) {
	sum, err := h.services.Dashboard.Summary(c.Request.Context())
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	counts := make(map[string]int64, len(sum.InsightsCount))
	for k, v := range sum.InsightsCount {
		counts[string(k)] = v
	}
	dto := DashboardSummaryDTO{
		TotalProjects:    sum.TotalProjects,
		ActiveProjects:   sum.ActiveProjects,
		TotalSprints:     sum.TotalSprints,
		TotalTeams:       sum.TotalTeams,
		TotalTeamMembers: sum.TotalTeamMembers,
		TotalUserStories: sum.TotalUserStories,
		TotalStoryPoints: sum.TotalStoryPoints,
		InsightsCount:    counts,
	}
	if sum.ActiveSprint != "" {
		dto.ActiveSprint = &sum.ActiveSprint
	}
	c.JSON(http.StatusOK, dto)
}
