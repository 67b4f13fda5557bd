package guard

import (
	"context"
	"sync"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"
)

// Key prefixes for the session-scoped guard state.
const (
	qualifiedKeyPrefix = "wm:ql_fired:"
	uploadKeyPrefix    = "wm:upload_fired:"
)

// Suppression reasons reported to diagnostics.
const (
	ReasonAttemptGuard     = "attempt_guard"
	ReasonSessionGuard     = "session_guard"
	ReasonUploadSupersedes = "upload_supersedes"
)

// Guard holds the three dedup scopes: the per-process attempt guard for
// scanner uploads, the per-lead session guard for qualification, and the
// cross-guard rule suppressing qualification once an upload has fired for
// the same lead.
type Guard struct {
	store Store
	ttl   time.Duration
	log   *logger.Logger

	// Only the most recent attempt id is remembered, per-process.
	mu          sync.Mutex
	lastAttempt string
}

// New creates a Guard over the given store. ttl bounds the session-scoped
// keys; the MemoryStore ignores it.
func New(store Store, ttl time.Duration, log *logger.Logger) *Guard {
	return &Guard{store: store, ttl: ttl, log: log}
}

// MarkUploadAttempt records a scanner upload attempt. Returns false when
// attemptID matches the most recent recorded attempt (a retry of the same
// logical upload); a new id always fires. On a fire, the upload-fired flag
// for the lead is recorded so qualification for that lead is superseded.
func (g *Guard) MarkUploadAttempt(ctx context.Context, attemptID, leadID string) bool {
	g.mu.Lock()
	if attemptID != "" && attemptID == g.lastAttempt {
		g.mu.Unlock()
		return false
	}
	g.lastAttempt = attemptID
	g.mu.Unlock()

	if leadID != "" {
		key := uploadKeyPrefix + leadID
		if _, err := g.store.SetIfAbsent(ctx, key, "1", g.ttl); err != nil && g.log != nil {
			// Best effort; the upload still fires.
			g.log.GuardStorageError("set", key, err)
		}
	}
	return true
}

// MarkQualified records a qualified-lead fire for the lead. Returns false
// with a reason when the fire must be suppressed: either qualification
// already fired for this lead in this session, or an upload — the stronger
// signal — has already fired for the lead and must not also bill the
// weaker tier.
func (g *Guard) MarkQualified(ctx context.Context, leadID string) (bool, string) {
	uploadKey := uploadKeyPrefix + leadID
	uploaded, err := g.store.Get(ctx, uploadKey)
	if err != nil {
		// Unreadable storage means "assume not yet fired".
		if g.log != nil {
			g.log.GuardStorageError("get", uploadKey, err)
		}
	} else if uploaded != "" {
		return false, ReasonUploadSupersedes
	}

	qlKey := qualifiedKeyPrefix + leadID
	created, err := g.store.SetIfAbsent(ctx, qlKey, "1", g.ttl)
	if err != nil {
		if g.log != nil {
			g.log.GuardStorageError("set", qlKey, err)
		}
		return true, ""
	}
	if !created {
		return false, ReasonSessionGuard
	}
	return true, ""
}

// ResetAttempt clears the per-process attempt guard and returns the
// attempt id it was holding, empty when none. Used at session boundaries
// and in tests; the caller uses the returned id to release any downstream
// dedup state keyed on it.
func (g *Guard) ResetAttempt() string {
	g.mu.Lock()
	prev := g.lastAttempt
	g.lastAttempt = ""
	g.mu.Unlock()
	return prev
}

// ResetLead clears the session-scoped guard state for a lead. Storage
// failures are ignored; reset fails open.
func (g *Guard) ResetLead(ctx context.Context, leadID string) {
	for _, key := range []string{qualifiedKeyPrefix + leadID, uploadKeyPrefix + leadID} {
		if err := g.store.Delete(ctx, key); err != nil && g.log != nil {
			g.log.GuardStorageError("delete", key, err)
		}
	}
}
