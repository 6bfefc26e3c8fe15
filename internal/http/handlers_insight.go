package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"

	"github.com/gin-gonic/gin"
)

func (h *Handler) InsightList(c *gin.Context) {
	f := repository.InsightFilter{Type: models.InsightType(c.Query("insight_type"))}

	if raw := c.Query("is_resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "is_resolved must be a boolean")
			return
		}
		f.Resolved = &v
	}

	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	f.Page = page

	insights, err := h.services.Insights.List(c.Request.Context(), f)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	out := make([]InsightDTO, 0, len(insights))
	for i := range insights {
		out = append(out, toInsightDTO(&insights[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) InsightGenerate(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			badRequest(c, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = t
	}

	res, err := h.services.Insights.Generate(c.Request.Context(), asOf)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	byType := make(map[string]int, len(res.ByType))
	for k, v := range res.ByType {
		byType[string(k)] = v
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          fmt.Sprintf("Generated %d insights", res.Total()),
		"week_start":       res.WeekStart.Format(dateLayout),
		"insights_by_type": byType,
	})
}

func (h *Handler) InsightResolve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := h.services.Insights.Resolve(c.Request.Context(), id); err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Insight resolved", "insight_id": id})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func pageFromQuery(c *gin.Context) (repository.Page, bool) {
	var p repository.Page
	for key, dst := range map[string]*int{"skip": &p.Offset, "limit": &p.Limit} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			badRequest(c, key+" must be a non-negative integer")
			return p, false
		}
		*dst = v
	}
	return p, true
}
