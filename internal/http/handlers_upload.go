package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prabhucts/pmo/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadKinds maps the upload route segment to an import kind.
var uploadKinds = map[string]service.ImportKind{
	"epics":             service.ImportEpics,
	"features":          service.ImportFeatures,
	"user-stories":      service.ImportUserStories,
	"defects":           service.ImportDefects,
	"clarity-timesheet": service.ImportTimesheet,
	"clarity-actuals":   service.ImportActuals,
}

func (h *Handler) Upload(c *gin.Context) {
	kind, ok := uploadKinds[c.Param("kind")]
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorBody{
				Code:    string(service.ErrorCodeNotFound),
				Message: "unknown upload type",
			},
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		h.writeSerErr(c, service.NewErr(service.ErrorCodeInvalidFile, "only CSV files are supported"))
		return
	}
	if h.uploads.MaxSize > 0 && file.Size > h.uploads.MaxSize {
		h.writeSerErr(c, service.NewErr(service.ErrorCodeInvalidFile,
			fmt.Sprintf("file too large, maximum size is %d bytes", h.uploads.MaxSize)))
		return
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		h.writeSerErr(c, err)
		return
	}
	tmp, err := os.CreateTemp(h.uploads.Dir, "upload-*.csv")
	if err != nil {
		h.writeSerErr(c, err)
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.log.Warn("removing upload failed", zap.String("path", path), zap.Error(err))
		}
	}()

	if err := c.SaveUploadedFile(file, path); err != nil {
		h.writeSerErr(c, err)
		return
	}

	res, err := h.services.Imports.ImportFile(c.Request.Context(), kind, path)
	if err != nil {
		h.writeSerErr(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponseDTO{
		Filename:      file.Filename,
		FileType:      string(res.FileType),
		RowsProcessed: res.RowsProcessed,
		RowsSkipped:   res.RowsSkipped,
		Status:        "success",
		Message:       fmt.Sprintf("Successfully processed %d rows", res.RowsProcessed),
	})
}
