package handler

import (
	"context"
	"net/http"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/queue"
	"outreach_backend/internal/cadence/service"
	"outreach_backend/internal/cadence/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// ReconcileTrigger enqueues a manual reconciliation run. A positive
// batchSize bounds the run; zero keeps the worker's configured size.
type ReconcileTrigger interface {
	TriggerReconcile(ctx context.Context, batchSize int) error
}

// Handler handles HTTP requests for the cadence engine.
type Handler struct {
	svc     *service.Service
	queue   *queue.Service
	trigger ReconcileTrigger
	val     *validator.Validator
}

// New creates a new cadence handler.
func New(svc *service.Service, queueSvc *queue.Service, trigger ReconcileTrigger, val *validator.Validator) *Handler {
	return &Handler{svc: svc, queue: queueSvc, trigger: trigger, val: val}
}

// RegisterRoutes registers the cadence routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads/:id/enroll", h.Enroll)
	rg.POST("/leads/:id/phones", h.AddPhone)
	rg.POST("/leads/:id/calls", h.LogCall)
	rg.POST("/leads/:id/snooze", h.Snooze)
	rg.POST("/leads/:id/pause", h.Pause)
	rg.POST("/leads/:id/resume", h.Resume)
	rg.POST("/leads/:id/score", h.Score)
	rg.GET("/leads/:id/status", h.GetStatus)

	rg.GET("/queue", h.GetQueue)
	rg.GET("/queue/next", h.GetNextUp)
	rg.POST("/reconcile", h.Reconcile)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "id must be a UUID")
		return uuid.UUID{}, false
	}
	return id, true
}

// Enroll handles POST /api/v1/cadence/leads/:id/enroll
func (h *Handler) Enroll(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.EnrollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var band *domain.TemperatureBand
	if req.TemperatureBand != nil {
		b := domain.TemperatureBand(*req.TemperatureBand)
		band = &b
	}

	lead, err := h.svc.Enroll(c.Request.Context(), identity.OwnerID(), id, band)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// AddPhone handles POST /api/v1/cadence/leads/:id/phones
func (h *Handler) AddPhone(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.AddPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, phone, err := h.svc.HandlePhoneAdded(c.Request.Context(), identity.OwnerID(), id, service.AddPhoneParams{
		Number:    req.Number,
		Type:      req.Type,
		Status:    domain.PhoneStatus(req.Status),
		IsPrimary: req.IsPrimary,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{
		"lead":  transport.FromLead(lead),
		"phone": transport.FromPhone(phone),
	})
}

// LogCall handles POST /api/v1/cadence/leads/:id/calls
func (h *Handler) LogCall(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.LogCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.LogCall(c.Request.Context(), identity.OwnerID(), id, service.LogCallParams{
		PhoneID:    req.PhoneID,
		Outcome:    domain.CallOutcome(req.Outcome),
		Notes:      req.Notes,
		CallbackAt: req.CallbackAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// Snooze handles POST /api/v1/cadence/leads/:id/snooze
func (h *Handler) Snooze(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.Snooze(c.Request.Context(), identity.OwnerID(), id, req.Days)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// Pause handles POST /api/v1/cadence/leads/:id/pause
func (h *Handler) Pause(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.Pause(c.Request.Context(), identity.OwnerID(), id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// Resume handles POST /api/v1/cadence/leads/:id/resume
func (h *Handler) Resume(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.Resume(c.Request.Context(), identity.OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

// Score handles POST /api/v1/cadence/leads/:id/score
func (h *Handler) Score(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Score(c.Request.Context(), identity.OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromScore(result))
}

// GetStatus handles GET /api/v1/cadence/leads/:id/status
func (h *Handler) GetStatus(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	status, err := h.svc.GetStatus(c.Request.Context(), identity.OwnerID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromStatus(status))
}

// GetQueue handles GET /api/v1/cadence/queue
func (h *Handler) GetQueue(c *gin.Context) {
	var req transport.QueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	sections, err := h.queue.GetQueue(c.Request.Context(), identity.OwnerID(), queue.Section(req.Section))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.QueueResponse{Sections: sections})
}

// GetNextUp handles GET /api/v1/cadence/queue/next
func (h *Handler) GetNextUp(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	entry, err := h.queue.GetNextUp(c.Request.Context(), identity.OwnerID())
	if httpkit.HandleError(c, err) {
		return
	}
	if entry == nil {
		httpkit.OK(c, gin.H{"next": nil})
		return
	}
	httpkit.OK(c, gin.H{"next": entry})
}

// Reconcile handles POST /api/v1/cadence/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	var req transport.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	batchSize := 0
	if req.BatchSize != nil {
		batchSize = *req.BatchSize
	}
	if err := h.trigger.TriggerReconcile(c.Request.Context(), batchSize); err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "could not enqueue reconciliation", nil)
		return
	}
	httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "queued"})
}
