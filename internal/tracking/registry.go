package tracking

import (
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
)

// EmitterInfo describes one emitter for ad-hoc inspection.
type EmitterInfo struct {
	Event     string  `json:"event"`
	Category  string  `json:"category"`
	BaseValue float64 `json:"baseValue,omitempty"`
	IDPattern string  `json:"idPattern"`
	Legacy    string  `json:"legacy,omitempty"`
}

// Registry is the explicitly-constructed inspection surface: the emitter
// inventory plus a window into the sink journal. Assembled once at startup
// and handed to the debug endpoint; nothing global is mutated.
type Registry struct {
	version string
	journal *sink.Journal
}

// NewRegistry creates the registry over the sink journal.
func NewRegistry(version string, journal *sink.Journal) *Registry {
	return &Registry{version: version, journal: journal}
}

// Snapshot is what the debug endpoint returns.
type Snapshot struct {
	Version  string              `json:"wm_tracking_version"`
	Emitters []EmitterInfo       `json:"emitters"`
	Recent   []envelope.Envelope `json:"recent"`
}

// Snapshot returns the current inspection view.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Version: r.version,
		Emitters: []EmitterInfo{
			{Event: envelope.Lead.Name(), Category: string(envelope.CategoryOpt), BaseValue: envelope.Lead.BaseValue(), IDPattern: "lead:{leadId}", Legacy: envelope.Lead.LegacyName()},
			{Event: envelope.QualifiedLead.Name(), Category: string(envelope.CategoryOpt), BaseValue: envelope.QualifiedLead.BaseValue(), IDPattern: "ql:{leadId}", Legacy: envelope.QualifiedLead.LegacyName()},
			{Event: envelope.ScannerUpload.Name(), Category: string(envelope.CategoryOpt), BaseValue: envelope.ScannerUpload.BaseValue(), IDPattern: "upload:{attemptId}", Legacy: envelope.ScannerUpload.LegacyName()},
			{Event: envelope.AppointmentBooked.Name(), Category: string(envelope.CategoryOpt), BaseValue: envelope.AppointmentBooked.BaseValue(), IDPattern: "appt:{leadId}:{appointmentKey|now}", Legacy: envelope.AppointmentBooked.LegacyName()},
			{Event: envelope.Sold.Name(), Category: string(envelope.CategoryOpt), BaseValue: envelope.Sold.BaseValue(), IDPattern: "sold:{leadId}:{dealKey|now}"},
		},
		Recent: r.journal.Recent(),
	}
}
