package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/prabhucts/pmo/internal/rules"

	"github.com/gin-gonic/gin"
)

// TeamUtilization reports one team for the week given as ?week=YYYY-MM-DD,
// defaulting to the current week.
func (h *Handler) TeamUtilization(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	week := rules.WeekStart(time.Now())
	if raw := c.Query("week"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "week must be YYYY-MM-DD")
			return
		}
		week = t
	}

	r, err := h.services.Metrics.TeamUtilization(c.Request.Context(), id, week)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) FeatureHours(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	r, err := h.services.Metrics.FeatureHours(c.Request.Context(), id, c.Query("team"))
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// MemberClarityAllocation expects ?itpr=CODE&weeks=2025-03-03,2025-03-10.
func (h *Handler) MemberClarityAllocation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var weeks []time.Time
	for _, raw := range strings.Split(c.Query("weeks"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "weeks must be a comma separated list of YYYY-MM-DD dates")
			return
		}
		weeks = append(weeks, t)
	}
	if len(weeks) == 0 {
		badRequest(c, "weeks is required")
		return
	}

	r, err := h.services.Metrics.ClarityAllocation(c.Request.Context(), c.Query("itpr"), id, weeks)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
