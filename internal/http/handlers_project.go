package httpapi

import (
	"net/http"

	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
)

type createProjectRequest struct {
	ITPRCode  string  `json:"itpr_code"`
	Name      string  `json:"name"`
	Theme     string  `json:"theme"`
	Owner     string  `json:"owner"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Status    string  `json:"status"`
}

func (h *Handler) ProjectList(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	if page.Limit == 0 {
		page.Limit = 100
	}

	projects, err := h.services.Projects.List(c.Request.Context(), page)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	out := make([]ProjectDTO, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectDTO(&projects[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ProjectGet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	p, err := h.services.Projects.Get(c.Request.Context(), id)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectDTO(p))
}

func (h *Handler) ProjectCreate(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		badRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		badRequest(c, "end_date must be YYYY-MM-DD")
		return
	}

	p, err := h.services.Projects.Create(c.Request.Context(), service.CreateProjectInput{
		ITPRCode:  req.ITPRCode,
		Name:      req.Name,
		Theme:     req.Theme,
		Owner:     req.Owner,
		StartDate: start,
		EndDate:   end,
		Status:    req.Status,
	})
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectDTO(p))
}

func (h *Handler) ProjectSummary(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	sum, err := h.services.Projects.Summary(c.Request.Context(), id)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ProjectSummaryDTO{
		Project:              toProjectDTO(sum.Project),
		EpicsCount:           sum.EpicsCount,
		FeaturesCount:        sum.FeaturesCount,
		UserStoriesCount:     sum.UserStoriesCount,
		TotalStoryPoints:     sum.TotalStoryPoints,
		CompletedStoryPoints: sum.CompletedStoryPoints,
		CompletionPercentage: sum.CompletionPercentage,
	})
}

func (h *Handler) ProjectOverrun(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	r, err := h.services.Metrics.ProjectOverrun(c.Request.Context(), id, c.Query("sprint"))
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ProjectForecast(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	r, err := h.services.Metrics.ProjectForecast(c.Request.Context(), id)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
