package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/mediasweep/api"
	"github.com/dfryer1193/mediasweep/media/application"
)

type mediaHandler struct {
	sweeper Sweeper
}

// GetUnused runs a full scan and returns the unused image IDs without deleting anything
func (h *mediaHandler) GetUnused(c *gin.Context) {
	result, err := h.sweeper.Scan(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUnusedImages(result))
}

// PostSweep scans and optionally deletes. The request body is optional; an empty body scans only.
func (h *mediaHandler) PostSweep(c *gin.Context) {
	var req api.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	result, report, err := h.sweeper.Sweep(c.Request.Context(), req.Delete)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Delete {
		log.Info().Int("unused", len(result.Unused)).Int("deleted", len(report.Deleted)).Msg("Sweep finished")
	}

	c.JSON(http.StatusOK, api.SweepResult{
		Unused:  len(result.Unused),
		Deleted: len(report.Deleted),
		Failed:  toImageErrors(report.Failed),
	})
}

func toUnusedImages(result application.ScanResult) api.UnusedImages {
	return api.UnusedImages{
		Count:   len(result.Unused),
		IDs:     result.UnusedIDs(),
		Unknown: toImageErrors(result.Unknown),
	}
}

func toImageErrors(errs []application.ImageError) []api.ImageError {
	out := make([]api.ImageError, 0, len(errs))
	for _, e := range errs {
		out = append(out, api.ImageError{ID: e.AttachmentID, Error: e.Err.Error()})
	}
	return out
}
