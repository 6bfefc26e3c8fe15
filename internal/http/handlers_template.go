package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) TemplateList(c *gin.Context) {
	templates, err := h.services.Templates.List(c.Request.Context())
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	out := make([]TemplateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateDTO(t))
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

func (h *Handler) TemplateDownload(c *gin.Context) {
	t, path, err := h.services.Templates.Path(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	c.FileAttachment(path, t.Filename)
}
