package httpapi

import (
	"net/http"
	"strconv"

	"github.com/prabhucts/pmo/internal/models"
	"github.com/prabhucts/pmo/internal/repository"
	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
)

type createRuleRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	RuleType    string         `json:"rule_type"`
	Parameters  map[string]any `json:"parameters"`
	IsActive    *bool          `json:"is_active"`
	Priority    int            `json:"priority"`
}

type updateRuleRequest struct {
	Description *string        `json:"description"`
	RuleType    *string        `json:"rule_type"`
	Parameters  map[string]any `json:"parameters"`
	IsActive    *bool          `json:"is_active"`
	Priority    *int           `json:"priority"`
}

func (h *Handler) RuleList(c *gin.Context) {
	f := repository.RuleFilter{Type: models.RuleType(c.Query("rule_type"))}
	if raw := c.Query("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "is_active must be a boolean")
			return
		}
		f.ActiveOnly = v
	}

	rules, err := h.services.Rules.List(c.Request.Context(), f)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	out := make([]RuleDTO, 0, len(rules))
	for i := range rules {
		out = append(out, toRuleDTO(&rules[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RuleCreate(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.RuleType == "" {
		badRequest(c, "invalid request body")
		return
	}

	in := service.RuleInput{
		Name:        req.Name,
		Description: req.Description,
		RuleType:    models.RuleType(req.RuleType),
		Parameters:  req.Parameters,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Priority:    req.Priority,
	}

	rule, err := h.services.Rules.Create(c.Request.Context(), in)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRuleDTO(rule))
}

func (h *Handler) RuleUpdate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	in := service.RuleUpdate{
		Description: req.Description,
		Parameters:  req.Parameters,
		IsActive:    req.IsActive,
		Priority:    req.Priority,
	}
	if req.RuleType != nil {
		rt := models.RuleType(*req.RuleType)
		in.RuleType = &rt
	}

	rule, err := h.services.Rules.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toRuleDTO(rule))
}

func (h *Handler) RuleDelete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.services.Rules.Delete(c.Request.Context(), id); err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}
