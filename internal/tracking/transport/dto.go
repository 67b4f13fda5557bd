// Package transport defines the HTTP request/response shapes for the
// tracking module.
package transport

import (
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/identity"
)

// IdentityPayload carries the caller-supplied identity facts. LeadID is
// the caller's contract to supply on every conversion request; everything
// else is optional and hashed before it leaves the pipeline.
type IdentityPayload struct {
	LeadID    string `json:"leadId" binding:"required"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
}

// ToIdentity maps the payload onto the domain type.
func (p IdentityPayload) ToIdentity() identity.Identity {
	return identity.Identity{
		LeadID:    p.LeadID,
		Email:     p.Email,
		Phone:     p.Phone,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		City:      p.City,
		State:     p.State,
		ZipCode:   p.ZipCode,
	}
}

// LeadRequest fires the lead-captured conversion.
type LeadRequest struct {
	Identity IdentityPayload `json:"identity" binding:"required"`
	Context  map[string]any  `json:"context,omitempty"`
}

// QualifiedLeadRequest fires the qualified-lead conversion.
type QualifiedLeadRequest struct {
	Identity IdentityPayload `json:"identity" binding:"required"`
	Context  map[string]any  `json:"context,omitempty"`
}

// ScannerUploadRequest fires the document-upload conversion.
type ScannerUploadRequest struct {
	Identity  IdentityPayload `json:"identity" binding:"required"`
	AttemptID string          `json:"attemptId" binding:"required"`
	Context   map[string]any  `json:"context,omitempty"`
}

// AppointmentRequest fires the appointment-booked conversion.
// AppointmentKey should be stable across rebookings of the same slot.
type AppointmentRequest struct {
	Identity       IdentityPayload `json:"identity" binding:"required"`
	AppointmentKey string          `json:"appointmentKey,omitempty"`
	Context        map[string]any  `json:"context,omitempty"`
}

// SaleRequest fires the sale-closed conversion.
type SaleRequest struct {
	Identity   IdentityPayload `json:"identity" binding:"required"`
	SaleAmount float64         `json:"saleAmount"`
	DealKey    string          `json:"dealKey,omitempty"`
	Context    map[string]any  `json:"context,omitempty"`
}

// RetargetRequest fires an audience event. There is deliberately no value
// field anywhere in this shape.
type RetargetRequest struct {
	Event   string         `json:"event" binding:"required"`
	Context map[string]any `json:"context,omitempty"`
}

// InternalRequest fires a local-diagnostics event.
type InternalRequest struct {
	Event string         `json:"event" binding:"required"`
	Data  map[string]any `json:"data,omitempty"`
}

// ScoreRequest asks the scoring engine for a priority score.
type ScoreRequest struct {
	IntentTier    int      `json:"intentTier" binding:"required,min=1,max=5"`
	OriginChannel string   `json:"originChannel,omitempty"`
	FieldsPresent []string `json:"fieldsPresent,omitempty"`
	BehaviorBonus float64  `json:"behaviorBonus,omitempty"`
}

// QualifyRequest asks the evaluator whether the lead qualifies.
type QualifyRequest struct {
	WindowScope string `json:"windowScope" binding:"required"`
	Timeline    string `json:"timeline" binding:"required"`
}

// QualifyResponse is the evaluator's answer.
type QualifyResponse struct {
	Qualifies bool `json:"qualifies"`
}

// ResetRequest clears guard state for a lead (and the process-wide
// attempt guard).
type ResetRequest struct {
	LeadID string `json:"leadId,omitempty"`
}
