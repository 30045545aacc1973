package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eventlyhq/evently/internal/config"
	"github.com/eventlyhq/evently/internal/domain/job"
	"github.com/eventlyhq/evently/internal/utils"
	"github.com/gin-gonic/gin"
)

// JobsAdmin is the slice of the jobs repository the admin endpoints use.
type JobsAdmin interface {
	ListByStatus(ctx context.Context, status string, limit int) ([]job.Job, error)
	RequeueFailed(ctx context.Context, id string) error
}

// AdminJobsHandler gives operators visibility into the email queue and a
// way to retry dead jobs. Mounted behind the admin JWT guard.
type AdminJobsHandler struct {
	repo JobsAdmin
}

func NewAdminJobsHandler(repo JobsAdmin) *AdminJobsHandler {
	return &AdminJobsHandler{repo: repo}
}

var validJobStatuses = map[string]struct{}{
	string(job.StatusPending):    {},
	string(job.StatusProcessing): {},
	string(job.StatusDone):       {},
	string(job.StatusFailed):     {},
}

func (h *AdminJobsHandler) ListJobs(ctx *gin.Context) {
	status := ctx.DefaultQuery("status", string(job.StatusFailed))

	if _, ok := validJobStatuses[status]; !ok {
		RespondBadRequest(ctx, "status must be one of pending, processing, done, failed", nil)
		return
	}

	limit := 50

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.ListByStatus(cctx, status, limit)

	if err != nil {
		RespondInternal(ctx, "Could not list jobs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": status,
		"count":  len(items),
		"items":  items,
	})
}

func (h *AdminJobsHandler) RequeueJob(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "job id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.RequeueFailed(cctx, id)

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			RespondNotFound(ctx, "No failed job with this id")
			return
		}

		RespondInternal(ctx, "Could not requeue job")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": id, "status": string(job.StatusPending)})
}
