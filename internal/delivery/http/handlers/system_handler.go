package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-payment-gateway/internal/app/background"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/gin-gonic/gin"
)

// TaskRunner is the scheduler surface exposed to operators.
type TaskRunner interface {
	Status() []background.TaskStatus
	Trigger(name string) error
}

type SystemHandler struct {
	maintenance usecase.MaintenanceUsecase
	retry       usecase.CallbackRetryUsecase
	scheduler   TaskRunner
	resp        *Responder
}

// NewSystemHandler accepts a nil scheduler when scheduling is disabled.
func NewSystemHandler(maintenance usecase.MaintenanceUsecase, retry usecase.CallbackRetryUsecase, scheduler TaskRunner, resp *Responder) *SystemHandler {
	return &SystemHandler{maintenance: maintenance, retry: retry, scheduler: scheduler, resp: resp}
}

func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 until both the store and the queue backend answer.
func (h *SystemHandler) Ready(c *gin.Context) {
	report := h.maintenance.Health(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *SystemHandler) Health(c *gin.Context) {
	report := h.maintenance.Health(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response.Envelope{
		Success: report.Healthy(),
		Message: "system " + report.Status,
		Data:    report,
	})
}

func (h *SystemHandler) Queue(c *gin.Context) {
	stats, err := h.maintenance.QueueStats(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "queue stats", stats)
}

func (h *SystemHandler) DeadLetters(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	jobs, err := h.retry.DeadLetters(c.Request.Context(), limit)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "dead-lettered callbacks", jobs)
}

func (h *SystemHandler) Scheduler(c *gin.Context) {
	if h.scheduler == nil {
		h.resp.OK(c, http.StatusOK, "scheduler disabled", []background.TaskStatus{})
		return
	}
	h.resp.OK(c, http.StatusOK, "scheduled tasks", h.scheduler.Status())
}

// RunTask handles POST /api/system/scheduler/:task/run.
func (h *SystemHandler) RunTask(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{Code: "SCHEDULER_DISABLED", Message: "scheduler is disabled"})
		return
	}
	name := c.Param("task")
	err := h.scheduler.Trigger(name)
	switch {
	case errors.Is(err, background.ErrUnknownTask):
		c.JSON(http.StatusNotFound, response.Envelope{Code: "UNKNOWN_TASK", Message: "unknown task " + name})
	case errors.Is(err, background.ErrTaskRunning):
		c.JSON(http.StatusConflict, response.Envelope{Code: "TASK_RUNNING", Message: name + " is already running"})
	case errors.Is(err, background.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, response.Envelope{Code: "SCHEDULER_STOPPED", Message: "scheduler is shutting down"})
	case err != nil:
		h.resp.Fail(c, err)
	default:
		h.resp.OK(c, http.StatusAccepted, name+" started", nil)
	}
}
