// Package handler exposes the tracking pipeline over HTTP.
package handler

import (
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/qualify"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/scoring"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/service"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/transport"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/apperr"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/httpkit"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

// eventNameTag bounds caller-chosen event names for the retarget and
// internal emitters. The five conversion names are fixed in the envelope
// package and never pass through here.
const eventNameTag = "required,max=64,printascii"

// Handler exposes the emitter, scoring and qualification endpoints.
type Handler struct {
	svc      *service.Service
	engine   *scoring.Engine
	validate *validator.Validator
}

// New creates a Handler.
func New(svc *service.Service, engine *scoring.Engine) *Handler {
	return &Handler{svc: svc, engine: engine, validate: validator.New()}
}

// Lead handles POST /track/lead
func (h *Handler) Lead(c *gin.Context) {
	var req transport.LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead payload").WithDetails(err.Error()))
		return
	}

	res := h.svc.Lead(c.Request.Context(), req.Identity.ToIdentity(), req.Context)
	httpkit.Accepted(c, res)
}

// QualifiedLead handles POST /track/qualified-lead
// A suppressed fire is a 200 with fired=false, not an error.
func (h *Handler) QualifiedLead(c *gin.Context) {
	var req transport.QualifiedLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid qualified-lead payload").WithDetails(err.Error()))
		return
	}

	res := h.svc.QualifiedLead(c.Request.Context(), req.Identity.ToIdentity(), req.Context)
	if !res.Fired {
		httpkit.OK(c, res)
		return
	}
	httpkit.Accepted(c, res)
}

// ScannerUpload handles POST /track/scanner-upload
func (h *Handler) ScannerUpload(c *gin.Context) {
	var req transport.ScannerUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid scanner-upload payload").WithDetails(err.Error()))
		return
	}

	res := h.svc.ScannerUpload(c.Request.Context(), req.Identity.ToIdentity(), req.AttemptID, req.Context)
	if !res.Fired {
		httpkit.OK(c, res)
		return
	}
	httpkit.Accepted(c, res)
}

// Appointment handles POST /track/appointment
func (h *Handler) Appointment(c *gin.Context) {
	var req transport.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid appointment payload").WithDetails(err.Error()))
		return
	}

	res := h.svc.AppointmentBooked(c.Request.Context(), req.Identity.ToIdentity(), req.AppointmentKey, req.Context)
	httpkit.Accepted(c, res)
}

// Sale handles POST /track/sale
func (h *Handler) Sale(c *gin.Context) {
	var req transport.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid sale payload").WithDetails(err.Error()))
		return
	}

	res := h.svc.Sold(c.Request.Context(), req.Identity.ToIdentity(), req.SaleAmount, req.DealKey, req.Context)
	httpkit.Accepted(c, res)
}

// Retarget handles POST /track/retarget
func (h *Handler) Retarget(c *gin.Context) {
	var req transport.RetargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid retarget payload").WithDetails(err.Error()))
		return
	}
	if err := h.validate.Var(req.Event, eventNameTag); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid event name").WithDetails(err.Error()))
		return
	}

	res := h.svc.Retarget(c.Request.Context(), req.Event, req.Context)
	httpkit.Accepted(c, res)
}

// Internal handles POST /track/internal
func (h *Handler) Internal(c *gin.Context) {
	var req transport.InternalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid internal payload").WithDetails(err.Error()))
		return
	}
	if err := h.validate.Var(req.Event, eventNameTag); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid event name").WithDetails(err.Error()))
		return
	}

	res := h.svc.Internal(c.Request.Context(), req.Event, req.Data)
	httpkit.Accepted(c, res)
}

// Score handles POST /leads/score
func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid score payload").WithDetails(err.Error()))
		return
	}

	fields := make([]scoring.Field, 0, len(req.FieldsPresent))
	for _, f := range req.FieldsPresent {
		fields = append(fields, scoring.Field(f))
	}

	score := h.engine.Score(scoring.Input{
		IntentTier:    req.IntentTier,
		OriginChannel: req.OriginChannel,
		FieldsPresent: fields,
		BehaviorBonus: req.BehaviorBonus,
	})

	httpkit.OK(c, gin.H{
		"score":   score,
		"routing": scoring.RoutingAction(score.Final),
	})
}

// Qualify handles POST /leads/qualify
func (h *Handler) Qualify(c *gin.Context) {
	var req transport.QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid qualify payload").WithDetails(err.Error()))
		return
	}

	ok := qualify.Qualifies(qualify.Facts{
		WindowScope: qualify.WindowScope(req.WindowScope),
		Timeline:    qualify.Timeline(req.Timeline),
	})
	httpkit.OK(c, transport.QualifyResponse{Qualifies: ok})
}

// Reset handles POST /admin/tracking/reset
func (h *Handler) Reset(c *gin.Context) {
	var req transport.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid reset payload").WithDetails(err.Error()))
		return
	}

	h.svc.ResetGuards(c.Request.Context(), req.LeadID)
	httpkit.OK(c, gin.H{"reset": true})
}
