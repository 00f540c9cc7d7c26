package jobxhttp

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/jobsched/pkg/errx"
	"github.com/Abraxas-365/jobsched/pkg/jobx"
	"github.com/Abraxas-365/jobsched/pkg/kernel"
	"github.com/Abraxas-365/jobsched/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// Scheduler is the part of *jobx.Scheduler the HTTP surface needs.
type Scheduler interface {
	ScheduleJob(ctx context.Context, desc jobx.JobDescriptor) (string, error)
	GetJobStatus(id string) (jobx.JobStatus, error)
	GetJob(id string) (*jobx.Job, error)
	CancelJob(id string) error
	ListJobs(status jobx.JobStatus, opts kernel.PaginationOptions) kernel.Paginated[*jobx.Job]
	GetStats() jobx.SchedulerStats
}

// Handlers exposes the scheduler over HTTP.
type Handlers struct {
	scheduler Scheduler
}

// NewHandlers creates the job handlers.
func NewHandlers(s Scheduler) *Handlers {
	return &Handlers{scheduler: s}
}

// RegisterRoutes mounts the job API:
//
//	POST   /api/v1/jobs
//	GET    /api/v1/jobs?status=&page=&page_size=
//	GET    /api/v1/jobs/:id
//	GET    /api/v1/jobs/:id/status
//	DELETE /api/v1/jobs/:id
//	GET    /api/v1/stats
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api/v1")

	jobs := api.Group("/jobs")
	jobs.Post("/", h.ScheduleJob)
	jobs.Get("/", h.ListJobs)
	jobs.Get("/:id", h.GetJob)
	jobs.Get("/:id/status", h.GetJobStatus)
	jobs.Delete("/:id", h.CancelJob)

	api.Get("/stats", h.GetStats)
}

// ScheduleJobRequest is the body of POST /api/v1/jobs.
type ScheduleJobRequest struct {
	ID       string            `json:"id"`
	JobType  string            `json:"job_type"`
	Priority string            `json:"priority"`
	Payload  json.RawMessage   `json:"payload"`
	Metadata map[string]string `json:"metadata"`
}

// ScheduleJobResponse is returned with 202 Accepted.
type ScheduleJobResponse struct {
	ID     string         `json:"id"`
	Status jobx.JobStatus `json:"status"`
}

func (h *Handlers) ScheduleJob(c *fiber.Ctx) error {
	var req ScheduleJobRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	priority, err := jobx.ParsePriority(req.Priority)
	if err != nil {
		return err
	}

	id, err := h.scheduler.ScheduleJob(c.UserContext(), jobx.JobDescriptor{
		ID:       req.ID,
		Type:     req.JobType,
		Priority: priority,
		Payload:  req.Payload,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(ScheduleJobResponse{ID: id, Status: jobx.JobStatusPending})
}

func (h *Handlers) ListJobs(c *fiber.Ctx) error {
	page := h.scheduler.ListJobs(jobx.JobStatus(c.Query("status")), kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
	})
	return c.JSON(page)
}

func (h *Handlers) GetJob(c *fiber.Ctx) error {
	job, err := h.scheduler.GetJob(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *Handlers) GetJobStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status, err := h.scheduler.GetJobStatus(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "status": status})
}

func (h *Handlers) CancelJob(c *fiber.Ctx) error {
	if err := h.scheduler.CancelJob(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.scheduler.GetStats())
}

// ErrorHandler converts errx and fiber errors into JSON responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	requestID := c.Get("X-Request-ID")

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": requestID,
		})
	}

	var e *errx.Error
	if errx.As(err, &e) {
		if e.HTTPStatus >= fiber.StatusInternalServerError {
			logx.WithError(err).WithFields(logx.Fields{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			}).Error("jobx/http: request failed")
		}
		resp := e.ToHTTPResponse()
		return c.Status(e.HTTPStatus).JSON(fiber.Map{
			"error":      resp.Message,
			"code":       resp.Code,
			"type":       resp.Type,
			"status":     e.HTTPStatus,
			"details":    resp.Details,
			"request_id": requestID,
		})
	}

	logx.WithError(err).WithField("path", c.Path()).Error("jobx/http: unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"type":       "INTERNAL",
		"request_id": requestID,
	})
}
