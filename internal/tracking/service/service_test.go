package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/guard"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/identity"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"
)

// recordingBus captures published events synchronously so tests can assert
// on them without racing the async in-memory bus.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.events))
	copy(out, b.events)
	return out
}

type fixture struct {
	svc     *Service
	journal *sink.Journal
	bus     *recordingBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("test")
	journal := sink.NewJournal(64)
	bus := &recordingBus{}
	svc := New(
		identity.NewNormalizer("US", log),
		guard.New(guard.NewMemoryStore(), 30*time.Minute, log),
		envelope.NewBuilder("2.1.0"),
		sink.NewService(journal, nil, nil, 30*time.Minute, nil, log),
		bus,
		log,
	)
	return &fixture{svc: svc, journal: journal, bus: bus}
}

func optRecords(records []envelope.Envelope) []envelope.Envelope {
	var out []envelope.Envelope
	for _, r := range records {
		if r.Meta.Category == envelope.CategoryOpt {
			out = append(out, r)
		}
	}
	return out
}

func TestLead_EmitsConversionAndBridge(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Lead(context.Background(), identity.Identity{LeadID: "L1", Email: "user@example.com"}, nil)
	if !res.Fired || res.EventID != "lead:L1" {
		t.Fatalf("unexpected result %+v", res)
	}

	records := f.journal.Recent()
	if len(records) != 2 {
		t.Fatalf("expected primary + bridge, got %d records", len(records))
	}

	primary, bridge := records[0], records[1]
	if primary.Event != "wm_lead" {
		t.Fatalf("primary event = %q", primary.Event)
	}
	if primary.Value == nil || *primary.Value != 10 {
		t.Fatalf("primary value = %v, want 10", primary.Value)
	}
	if primary.Currency != "USD" {
		t.Fatalf("primary currency = %q", primary.Currency)
	}
	if primary.UserData == nil || primary.UserData.Em == "" {
		t.Fatal("expected hashed identity on primary")
	}

	if bridge.Event != "generate_lead" {
		t.Fatalf("bridge event = %q", bridge.Event)
	}
	if bridge.EventID != primary.EventID {
		t.Fatalf("bridge id %q != primary id %q", bridge.EventID, primary.EventID)
	}
	if bridge.Value != nil || bridge.Meta.Value != nil {
		t.Fatal("bridge must carry no value")
	}
	if bridge.Meta.Category != envelope.CategoryRT {
		t.Fatalf("bridge category = %q", bridge.Meta.Category)
	}
}

func TestLead_RepeatWithSameLeadIDYieldsOneOptRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	f.svc.Lead(ctx, id, nil)
	f.svc.Lead(ctx, id, nil)

	opts := optRecords(f.journal.Recent())
	if len(opts) != 1 {
		t.Fatalf("expected exactly one opt record, got %d", len(opts))
	}
}

func TestQualifiedLead_SessionGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	first := f.svc.QualifiedLead(ctx, id, nil)
	if !first.Fired || first.EventID != "ql:L1" {
		t.Fatalf("unexpected first result %+v", first)
	}

	second := f.svc.QualifiedLead(ctx, id, nil)
	if second.Fired {
		t.Fatal("repeat qualification must be suppressed")
	}
	if second.Reason != guard.ReasonSessionGuard {
		t.Fatalf("reason = %q", second.Reason)
	}

	var suppressed int
	for _, e := range f.bus.published() {
		if _, ok := e.(events.DuplicateSuppressed); ok {
			suppressed++
		}
	}
	if suppressed != 1 {
		t.Fatalf("expected one suppression event, got %d", suppressed)
	}
}

func TestScannerUpload_AttemptGuardAndSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	res := f.svc.ScannerUpload(ctx, id, "A1", nil)
	if !res.Fired || res.EventID != "upload:A1" {
		t.Fatalf("unexpected result %+v", res)
	}

	retry := f.svc.ScannerUpload(ctx, id, "A1", nil)
	if retry.Fired {
		t.Fatal("same attempt id must not fire")
	}
	if retry.Reason != guard.ReasonAttemptGuard {
		t.Fatalf("reason = %q", retry.Reason)
	}

	// Upload supersedes the weaker qualification tier for the same lead.
	ql := f.svc.QualifiedLead(ctx, id, nil)
	if ql.Fired {
		t.Fatal("qualification after upload must be suppressed")
	}
	if ql.Reason != guard.ReasonUploadSupersedes {
		t.Fatalf("reason = %q", ql.Reason)
	}
}

func TestAppointmentBooked_StableKeyDedupes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	first := f.svc.AppointmentBooked(ctx, id, "slot-42", nil)
	second := f.svc.AppointmentBooked(ctx, id, "slot-42", nil)
	if first.EventID != "appt:L1:slot-42" || second.EventID != first.EventID {
		t.Fatalf("event ids %q / %q", first.EventID, second.EventID)
	}

	opts := optRecords(f.journal.Recent())
	if len(opts) != 1 {
		t.Fatalf("expected one opt record for a rebooked slot, got %d", len(opts))
	}
}

func TestSold_ClampsNegativeAmountAndKeepsRaw(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Sold(context.Background(), identity.Identity{LeadID: "L1"}, -500, "deal1", nil)
	if !res.Fired || res.EventID != "sold:L1:deal1" {
		t.Fatalf("unexpected result %+v", res)
	}

	records := f.journal.Recent()
	if len(records) != 1 {
		t.Fatalf("sold must emit no bridge, got %d records", len(records))
	}
	rec := records[0]
	if rec.Value == nil || *rec.Value != 5000 {
		t.Fatalf("value = %v, want base 5000 with negative amount clamped", rec.Value)
	}
	if raw, _ := rec.Context["sale_amount_raw"].(float64); raw != -500 {
		t.Fatalf("sale_amount_raw = %v, want -500", rec.Context["sale_amount_raw"])
	}
}

func TestSold_AmountAddsToBase(t *testing.T) {
	f := newFixture(t)

	f.svc.Sold(context.Background(), identity.Identity{LeadID: "L1"}, 12000, "deal2", nil)

	rec := f.journal.Recent()[0]
	if rec.Value == nil || *rec.Value != 17000 {
		t.Fatalf("value = %v, want 17000", rec.Value)
	}
}

func TestRetargetAndInternal_NeverMonetized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Retarget(ctx, "wm_page_view", map[string]any{"path": "/pricing", "value": 999})
	f.svc.Internal(ctx, "wm_debug", map[string]any{"note": "x"})

	records := f.journal.Recent()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	rt := records[0]
	if rt.Meta.Category != envelope.CategoryRT || !rt.Meta.Send {
		t.Fatalf("retarget meta %+v", rt.Meta)
	}
	if rt.Value != nil || rt.Currency != "" {
		t.Fatal("retarget record carries value fields")
	}
	if _, present := rt.Context["value"]; present {
		t.Fatal("reserved context key survived")
	}

	in := records[1]
	if in.Meta.Category != envelope.CategoryInternal {
		t.Fatalf("internal category = %q", in.Meta.Category)
	}
	if in.Meta.Send {
		t.Fatal("internal record must be send=false")
	}
}

func TestFireConversion_SanitizesContextStrings(t *testing.T) {
	f := newFixture(t)

	f.svc.Lead(context.Background(), identity.Identity{LeadID: "L1"}, map[string]any{
		"note": "<script>alert(1)</script>hello",
	})

	rec := f.journal.Recent()[0]
	note, _ := rec.Context["note"].(string)
	if note == "" {
		t.Fatal("context key lost")
	}
	for _, c := range note {
		if c == '<' || c == '>' {
			t.Fatalf("markup survived sanitization: %q", note)
		}
	}
}

func TestResetGuards_ReopensAllScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	f.svc.ScannerUpload(ctx, id, "A1", nil)
	if res := f.svc.QualifiedLead(ctx, id, nil); res.Fired {
		t.Fatal("expected suppression before reset")
	}

	f.svc.ResetGuards(ctx, "L1")

	if res := f.svc.QualifiedLead(ctx, id, nil); !res.Fired {
		t.Fatal("qualification must fire after reset")
	}
	if res := f.svc.ScannerUpload(ctx, id, "A1", nil); !res.Fired {
		t.Fatal("attempt guard must be clear after reset")
	}
}

func TestResetGuards_PostResetFiresLandInJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := identity.Identity{LeadID: "L1"}

	f.svc.QualifiedLead(ctx, id, nil)
	f.svc.ScannerUpload(ctx, id, "A1", nil)

	f.svc.ResetGuards(ctx, "L1")

	// A fire that the guards allow must produce a journaled record; the
	// sink's own dedup state is released together with the guard state.
	if res := f.svc.QualifiedLead(ctx, id, nil); !res.Fired {
		t.Fatal("qualification must fire after reset")
	}
	if res := f.svc.ScannerUpload(ctx, id, "A1", nil); !res.Fired {
		t.Fatal("upload must fire after reset")
	}

	counts := map[string]int{}
	for _, r := range f.journal.Recent() {
		counts[r.Event]++
	}
	if counts["wm_qualified_lead"] != 2 {
		t.Fatalf("wm_qualified_lead records = %d, want 2", counts["wm_qualified_lead"])
	}
	if counts["qualified_lead"] != 2 {
		t.Fatalf("qualified_lead bridge records = %d, want 2", counts["qualified_lead"])
	}
	if counts["wm_scanner_upload"] != 2 {
		t.Fatalf("wm_scanner_upload records = %d, want 2", counts["wm_scanner_upload"])
	}
}

func TestConversionRecorded_PublishedWithBridgeFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Lead(ctx, identity.Identity{LeadID: "L1"}, nil)
	f.svc.Sold(ctx, identity.Identity{LeadID: "L1"}, 100, "deal1", nil)

	var recorded []events.ConversionRecorded
	for _, e := range f.bus.published() {
		if cr, ok := e.(events.ConversionRecorded); ok {
			recorded = append(recorded, cr)
		}
	}
	if len(recorded) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(recorded))
	}
	if !recorded[0].HasBridge || recorded[0].Value != 10 {
		t.Fatalf("lead event %+v", recorded[0])
	}
	if recorded[1].HasBridge || recorded[1].Value != 5100 {
		t.Fatalf("sold event %+v", recorded[1])
	}
}
