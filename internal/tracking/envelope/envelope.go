// Package envelope assembles the wire shape shared by every emitted event.
//
// The value/category invariant lives here: value and currency appear on a
// record if and only if its category is "opt", and the only way to obtain
// an opt category is through one of the five package-level conversion
// kinds. Retargeting and internal kinds are built through constructors
// that have no value field, so a sixth monetized emitter cannot appear
// without touching this package.
package envelope

import (
	"encoding/json"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/identity"
)

// Category classifies an event for downstream filtering.
type Category string

const (
	// CategoryOpt marks a monetized conversion event.
	CategoryOpt Category = "opt"
	// CategoryRT marks a retargeting/audience event.
	CategoryRT Category = "rt"
	// CategoryInternal marks a local-diagnostics event.
	CategoryInternal Category = "internal"
)

// Currency is the fixed currency code attached to every opt event.
const Currency = "USD"

// Kind is the tagged variant identifying an event kind. The zero Kind is
// invalid; kinds are either the five exported conversion kinds below or
// products of Retargeting/Internal.
type Kind struct {
	name       string
	category   Category
	send       bool
	baseValue  float64
	legacyName string
}

// The five conversion kinds. Each carries the only value it is allowed to
// attach; callers never supply one.
var (
	Lead              = Kind{name: "wm_lead", category: CategoryOpt, send: true, baseValue: 10, legacyName: "generate_lead"}
	QualifiedLead     = Kind{name: "wm_qualified_lead", category: CategoryOpt, send: true, baseValue: 100, legacyName: "qualified_lead"}
	ScannerUpload     = Kind{name: "wm_scanner_upload", category: CategoryOpt, send: true, baseValue: 500, legacyName: "scanner_upload"}
	AppointmentBooked = Kind{name: "wm_appointment_booked", category: CategoryOpt, send: true, baseValue: 1000, legacyName: "appointment_booked"}
	Sold              = Kind{name: "wm_sold", category: CategoryOpt, send: true, baseValue: 5000}
)

// Retargeting builds an audience event kind. No value field exists on the
// result by construction.
func Retargeting(name string) Kind {
	return Kind{name: name, category: CategoryRT, send: true}
}

// Internal builds a local-diagnostics event kind. send=false is set here,
// at the source, so the record is structurally incapable of reaching an ad
// platform even if downstream filtering is misconfigured.
func Internal(name string) Kind {
	return Kind{name: name, category: CategoryInternal, send: false}
}

// Name returns the canonical event name.
func (k Kind) Name() string { return k.name }

// Category returns the event category.
func (k Kind) Category() Category { return k.category }

// IsConversion reports whether the kind is one of the five opt kinds.
func (k Kind) IsConversion() bool { return k.category == CategoryOpt }

// BaseValue returns the hardcoded value of a conversion kind.
func (k Kind) BaseValue() float64 { return k.baseValue }

// LegacyName returns the pre-migration name re-emitted by the bridge,
// or "" when the kind has no bridge.
func (k Kind) LegacyName() string { return k.legacyName }

// Meta is the meta block present on every record without exception.
type Meta struct {
	Send            bool     `json:"send"`
	Category        Category `json:"category"`
	Value           *float64 `json:"value,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	MetaEventName   string   `json:"meta_event_name,omitempty"`
	TrackingVersion string   `json:"wm_tracking_version"`
}

// Envelope is one sink record.
type Envelope struct {
	Event      string           `json:"event"`
	EventID    string           `json:"event_id"`
	Meta       Meta             `json:"meta"`
	Value      *float64         `json:"value,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	LeadID     string           `json:"lead_id,omitempty"`
	ExternalID string           `json:"external_id,omitempty"`
	UserData   *identity.Bundle `json:"user_data,omitempty"`

	// Context fields are merged verbatim into the top level on marshal.
	Context map[string]any `json:"-"`

	PushedAt time.Time `json:"-"`
}

// reservedContextKeys are never honored from caller-supplied context.
var reservedContextKeys = map[string]struct{}{
	"event":       {},
	"event_id":    {},
	"meta":        {},
	"value":       {},
	"currency":    {},
	"lead_id":     {},
	"external_id": {},
	"user_data":   {},
}

// Builder assembles envelopes with the pipeline's version tag.
type Builder struct {
	version string
}

// NewBuilder creates a Builder stamping records with the given version tag.
func NewBuilder(version string) *Builder {
	return &Builder{version: version}
}

// Conversion assembles an opt envelope. extra is added to the kind's base
// value (the Sold emitter passes the clamped sale amount; every other
// emitter passes 0). kind must be one of the five conversion kinds.
func (b *Builder) Conversion(kind Kind, eventID, leadID string, extra float64, bundle *identity.Bundle, ctx map[string]any) Envelope {
	v := kind.baseValue + extra
	return Envelope{
		Event:   kind.name,
		EventID: eventID,
		Meta: Meta{
			Send:            kind.send,
			Category:        CategoryOpt,
			Value:           &v,
			Currency:        Currency,
			TrackingVersion: b.version,
		},
		Value:      &v,
		Currency:   Currency,
		LeadID:     leadID,
		ExternalID: externalID(bundle),
		UserData:   bundle,
		Context:    scrubContext(ctx),
	}
}

// Event assembles a non-monetized envelope for a retargeting or internal
// kind. There is no value parameter; reserved keys in ctx are dropped,
// not honored.
func (b *Builder) Event(kind Kind, eventID, leadID string, bundle *identity.Bundle, ctx map[string]any) Envelope {
	return Envelope{
		Event:   kind.name,
		EventID: eventID,
		Meta: Meta{
			Send:            kind.send,
			Category:        kind.category,
			TrackingVersion: b.version,
		},
		LeadID:     leadID,
		ExternalID: externalID(bundle),
		UserData:   bundle,
		Context:    scrubContext(ctx),
	}
}

// Bridge assembles the legacy compatibility record for a conversion kind:
// the pre-migration name, rt category, no value, tagged so migrated
// consumers can identify and drop it.
func (b *Builder) Bridge(kind Kind, eventID, leadID string, bundle *identity.Bundle) (Envelope, bool) {
	if kind.legacyName == "" {
		return Envelope{}, false
	}
	return Envelope{
		Event:   kind.legacyName,
		EventID: eventID,
		Meta: Meta{
			Send:            true,
			Category:        CategoryRT,
			MetaEventName:   kind.name,
			TrackingVersion: b.version,
		},
		LeadID:     leadID,
		ExternalID: externalID(bundle),
		UserData:   bundle,
		Context:    map[string]any{"wm_bridge": true},
	}, true
}

func externalID(bundle *identity.Bundle) string {
	if bundle == nil {
		return ""
	}
	return bundle.ExternalID
}

func scrubContext(ctx map[string]any) map[string]any {
	if len(ctx) == 0 {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if _, reserved := reservedContextKeys[k]; reserved {
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON flattens the context fields into the top-level record.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type alias Envelope
	base, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Context) == 0 {
		return base, nil
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(base, &flat); err != nil {
		return nil, err
	}
	for k, v := range e.Context {
		if _, reserved := reservedContextKeys[k]; reserved {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		flat[k] = raw
	}
	return json.Marshal(flat)
}
