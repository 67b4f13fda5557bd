// Package service implements the conversion emitters, the retargeting and
// internal emitters, and the legacy bridge. Exactly five functions may
// produce a monetized record, and none of them take a caller-supplied
// value; the amounts live on the envelope kinds.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/guard"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/identity"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// Result reports whether an emitter fired and why not when suppressed.
// Suppression is an outcome, not an error.
type Result struct {
	Fired   bool   `json:"fired"`
	EventID string `json:"eventId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Service is the attribution pipeline's emitter surface.
type Service struct {
	normalizer *identity.Normalizer
	guard      *guard.Guard
	builder    *envelope.Builder
	sink       sink.Sink
	bus        events.Bus
	log        *logger.Logger

	now func() time.Time
}

// New assembles the emitter service.
func New(normalizer *identity.Normalizer, g *guard.Guard, builder *envelope.Builder, snk sink.Sink, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		normalizer: normalizer,
		guard:      g,
		builder:    builder,
		sink:       snk,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// Lead emits the lead-captured conversion. The event id is derived from
// the lead id alone, so a retry-prone caller reusing the same lead id
// produces an idempotent record downstream.
func (s *Service) Lead(ctx context.Context, id identity.Identity, ctxFields map[string]any) Result {
	eventID := "lead:" + id.LeadID
	s.fireConversion(ctx, envelope.Lead, eventID, id, 0, ctxFields)
	return Result{Fired: true, EventID: eventID}
}

// QualifiedLead emits the qualified-lead conversion unless the session
// guard has already seen this lead, or an upload — the stronger signal —
// has already fired for it.
func (s *Service) QualifiedLead(ctx context.Context, id identity.Identity, ctxFields map[string]any) Result {
	fire, reason := s.guard.MarkQualified(ctx, id.LeadID)
	if !fire {
		s.publishSuppressed(ctx, envelope.QualifiedLead.Name(), id.LeadID, reason)
		return Result{Fired: false, Reason: reason}
	}

	eventID := "ql:" + id.LeadID
	s.fireConversion(ctx, envelope.QualifiedLead, eventID, id, 0, ctxFields)
	return Result{Fired: true, EventID: eventID}
}

// ScannerUpload emits the document-upload conversion. The attempt guard
// remembers only the most recent attempt id: the same id twice is a no-op,
// a new id always fires. A fire records the upload flag that supersedes
// qualification for this lead.
func (s *Service) ScannerUpload(ctx context.Context, id identity.Identity, attemptID string, ctxFields map[string]any) Result {
	if !s.guard.MarkUploadAttempt(ctx, attemptID, id.LeadID) {
		s.publishSuppressed(ctx, envelope.ScannerUpload.Name(), id.LeadID, guard.ReasonAttemptGuard)
		return Result{Fired: false, Reason: guard.ReasonAttemptGuard}
	}

	eventID := "upload:" + attemptID
	s.fireConversion(ctx, envelope.ScannerUpload, eventID, id, 0, ctxFields)
	return Result{Fired: true, EventID: eventID}
}

// AppointmentBooked emits the appointment conversion. Callers must supply
// a stable appointmentKey to avoid double-counting on rebooking; without
// one the current time is used and every call fires.
func (s *Service) AppointmentBooked(ctx context.Context, id identity.Identity, appointmentKey string, ctxFields map[string]any) Result {
	eventID := fmt.Sprintf("appt:%s:%s", id.LeadID, s.keyOrNow(appointmentKey))
	s.fireConversion(ctx, envelope.AppointmentBooked, eventID, id, 0, ctxFields)
	return Result{Fired: true, EventID: eventID}
}

// Sold emits the sale-closed conversion. Negative sale amounts are clamped
// to zero before being added to the base value; the raw amount is kept on
// the record for auditing. Sold has no legacy bridge.
func (s *Service) Sold(ctx context.Context, id identity.Identity, saleAmount float64, dealKey string, ctxFields map[string]any) Result {
	extra := saleAmount
	if extra < 0 {
		extra = 0
	}

	merged := make(map[string]any, len(ctxFields)+1)
	for k, v := range ctxFields {
		merged[k] = v
	}
	merged["sale_amount_raw"] = saleAmount

	eventID := fmt.Sprintf("sold:%s:%s", id.LeadID, s.keyOrNow(dealKey))
	s.fireConversion(ctx, envelope.Sold, eventID, id, extra, merged)
	return Result{Fired: true, EventID: eventID}
}

// Retarget emits an audience event. It fires immediately: no dedup, and
// structurally no value — the signature has no amount to forward, and
// reserved context keys are dropped by the envelope builder.
func (s *Service) Retarget(ctx context.Context, name string, ctxFields map[string]any) Result {
	eventID := uuid.NewString()
	env := s.builder.Event(envelope.Retargeting(name), eventID, "", nil, sanitizeContext(ctxFields))
	s.push(ctx, env)
	return Result{Fired: true, EventID: eventID}
}

// Internal emits a local-diagnostics event. send=false is fixed at the
// source; the record cannot reach an ad platform regardless of downstream
// filtering.
func (s *Service) Internal(ctx context.Context, name string, data map[string]any) Result {
	eventID := uuid.NewString()
	env := s.builder.Event(envelope.Internal(name), eventID, "", nil, sanitizeContext(data))
	s.push(ctx, env)
	return Result{Fired: true, EventID: eventID}
}

// ResetGuards clears dedup state for a lead and the process-wide attempt
// guard. The sink's own at-most-once state for the deterministic ids those
// guards cover is forgotten alongside, so a post-reset fire lands in the
// journal instead of being absorbed. Exposed for tests and session
// boundaries.
func (s *Service) ResetGuards(ctx context.Context, leadID string) {
	if prev := s.guard.ResetAttempt(); prev != "" {
		s.sink.Forget("upload:" + prev)
	}
	if leadID != "" {
		s.guard.ResetLead(ctx, leadID)
		s.sink.Forget("lead:" + leadID)
		s.sink.Forget("ql:" + leadID)
	}
}

// fireConversion builds and pushes the primary opt record, then its legacy
// bridge counterpart, in that order. A hashing failure never blocks the
// fire: Normalize degrades to a nil bundle and the record goes out with
// whatever identity survived.
func (s *Service) fireConversion(ctx context.Context, kind envelope.Kind, eventID string, id identity.Identity, extra float64, ctxFields map[string]any) {
	bundle := s.normalizer.Normalize(id)

	env := s.builder.Conversion(kind, eventID, id.LeadID, extra, bundle, sanitizeContext(ctxFields))
	s.push(ctx, env)

	if bridge, ok := s.builder.Bridge(kind, eventID, id.LeadID, bundle); ok {
		s.push(ctx, bridge)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ConversionRecorded{
			BaseEvent: events.NewBaseEvent(),
			EventID:   eventID,
			Name:      kind.Name(),
			LeadID:    id.LeadID,
			Value:     kind.BaseValue() + extra,
			HasBridge: kind.LegacyName() != "",
		})
	}
}

func (s *Service) push(ctx context.Context, env envelope.Envelope) {
	if err := s.sink.Push(ctx, env); err != nil {
		s.log.SinkError("push", env.Event, err)
	}
}

func (s *Service) publishSuppressed(ctx context.Context, name, leadID, reason string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.DuplicateSuppressed{
		BaseEvent: events.NewBaseEvent(),
		Name:      name,
		LeadID:    leadID,
		Reason:    reason,
	})
}

func (s *Service) keyOrNow(key string) string {
	if key != "" {
		return key
	}
	return fmt.Sprintf("%d", s.now().UnixMilli())
}

// sanitizeContext strips HTML from string context values. Context maps
// arrive verbatim from form fields on the marketing site.
func sanitizeContext(ctxFields map[string]any) map[string]any {
	if len(ctxFields) == 0 {
		return nil
	}
	out := make(map[string]any, len(ctxFields))
	for k, v := range ctxFields {
		if str, ok := v.(string); ok {
			out[k] = sanitize.Text(str)
			continue
		}
		out[k] = v
	}
	return out
}
