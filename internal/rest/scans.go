package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/mediasweep/api"
	"github.com/dfryer1193/mediasweep/media/application"
)

type scanHandler struct {
	jobs Jobs
}

func (h *scanHandler) StartScan(c *gin.Context) {
	job, err := h.jobs.Start()
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Location", "/media/v1/scans/"+job.ID)
	c.JSON(http.StatusAccepted, toScanJob(job))
}

func (h *scanHandler) ListScans(c *gin.Context) {
	jobs := h.jobs.List()

	out := make([]api.ScanJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toScanJob(job))
	}
	c.JSON(http.StatusOK, out)
}

func (h *scanHandler) GetScan(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("scanId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toScanJob(job))
}

func (h *scanHandler) CancelScan(c *gin.Context) {
	if err := h.jobs.Cancel(c.Param("scanId")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmDelete deletes exactly the images reported by a completed scan
func (h *scanHandler) ConfirmDelete(c *gin.Context) {
	report, err := h.jobs.ConfirmDelete(c.Request.Context(), c.Param("scanId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDeleteReport(report))
}

func toScanJob(job application.Job) api.ScanJob {
	out := api.ScanJob{
		ID:    job.ID,
		State: string(job.State),
		Progress: api.ScanProgress{
			Total:   job.Progress.Total,
			Checked: job.Progress.Checked,
			Unused:  job.Progress.Unused,
			Unknown: job.Progress.Unknown,
		},
		Error:     job.Error,
		StartedAt: job.StartedAt.Format(time.RFC3339),
	}

	if !job.FinishedAt.IsZero() {
		out.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}

	switch job.State {
	case application.JobCompleted, application.JobDeleting, application.JobDeleted:
		result := toUnusedImages(job.Result)
		out.Result = &result
	}

	if job.Report != nil {
		report := toDeleteReport(*job.Report)
		out.Report = &report
	}

	return out
}

func toDeleteReport(report application.DeleteReport) api.DeleteReport {
	return api.DeleteReport{
		Deleted: nonNilIDs(report.Deleted),
		Skipped: nonNilIDs(report.Skipped),
		Failed:  toImageErrors(report.Failed),
	}
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, application.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, application.ErrJobRunning),
		errors.Is(err, application.ErrJobNotRunning),
		errors.Is(err, application.ErrJobNotCompleted):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	c.Error(err)
	c.JSON(status, api.Error{Error: err.Error()})
}
