package rest

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfryer1193/mediasweep/internal/middleware"
	"github.com/dfryer1193/mediasweep/media/application"
)

// Sweeper runs synchronous scans and sweeps
type Sweeper interface {
	Scan(ctx context.Context) (application.ScanResult, error)
	Sweep(ctx context.Context, deleteUnused bool) (application.ScanResult, application.DeleteReport, error)
}

// Jobs manages background scans
type Jobs interface {
	Start() (application.Job, error)
	Get(id string) (application.Job, error)
	List() []application.Job
	Cancel(id string) error
	ConfirmDelete(ctx context.Context, id string) (application.DeleteReport, error)
}

// NewApi registers the media routes on router. When adminToken is set every media route
// requires it as a bearer token.
func NewApi(router *gin.Engine, sweeper Sweeper, jobs Jobs, adminToken string) {
	router.GET("/healthz", Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	media := &mediaHandler{sweeper: sweeper}
	scans := &scanHandler{jobs: jobs}

	mediaV1 := router.Group("media/v1")
	if adminToken != "" {
		mediaV1.Use(middleware.RequireToken(adminToken))
	}
	{
		mediaV1.GET("/unused", media.GetUnused)
		mediaV1.POST("/sweep", media.PostSweep)

		mediaV1.POST("/scans", scans.StartScan)
		mediaV1.GET("/scans", scans.ListScans)
		mediaV1.GET("/scans/:scanId", scans.GetScan)
		mediaV1.DELETE("/scans/:scanId", scans.CancelScan)
		mediaV1.POST("/scans/:scanId/delete", scans.ConfirmDelete)
	}
}

// NewEngine builds a gin engine with the standard middleware and the media routes
func NewEngine(sweeper Sweeper, jobs Jobs, adminToken string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	NewApi(router, sweeper, jobs, adminToken)
	return router
}
