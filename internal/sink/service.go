package sink

import (
	"context"
	"sync"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"
)

// ReasonAlreadyPushed marks a record absorbed by the sink's own
// at-most-once set rather than by an emitter guard.
const ReasonAlreadyPushed = "already_pushed"

// Service is the production Sink. Each pushed record is journaled, then
// best-effort persisted and dispatched. Persistence and dispatch failures
// are logged and swallowed; the pipeline degrades to a no-op rather than
// surfacing sink trouble to the host.
type Service struct {
	journal    *Journal
	repo       *Repository // nil when no database is configured
	dispatcher *Dispatcher // nil when no collector is configured
	bus        events.Bus  // nil when no diagnostics bus is wired
	log        *logger.Logger

	// seen enforces at-most-once per (event_id, event) within one session
	// window. Conversion ids are deterministic, so a retry-prone caller
	// replaying the same logical event lands on the same entry. Entries
	// expire with the session, matching the guard TTL, so a legitimate
	// re-fire in a later session still lands and the set stays bounded.
	mu        sync.Mutex
	seen      map[string]map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time

	now func() time.Time
}

// NewService assembles the sink. repo, dispatcher and bus may be nil.
// dedupTTL bounds the at-most-once window; non-positive means no expiry.
func NewService(journal *Journal, repo *Repository, dispatcher *Dispatcher, dedupTTL time.Duration, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		journal:    journal,
		repo:       repo,
		dispatcher: dispatcher,
		bus:        bus,
		log:        log,
		seen:       make(map[string]map[string]time.Time),
		ttl:        dedupTTL,
		now:        time.Now,
	}
}

// Push records one envelope. Records are journaled in call order, so a
// primary event pushed before its legacy bridge counterpart stays ordered.
// A record whose (event, event_id) pair was already pushed inside the
// dedup window is absorbed and reported on the diagnostics bus;
// retargeting and internal ids are random, so only replayed conversion
// records (and their bridges) are affected.
func (s *Service) Push(ctx context.Context, env envelope.Envelope) error {
	now := s.now()
	if !s.markSeen(env.EventID, env.Event, now) {
		s.log.Debug("duplicate record absorbed", "event", env.Event, "event_id", env.EventID)
		if s.bus != nil {
			s.bus.Publish(ctx, events.DuplicateSuppressed{
				BaseEvent: events.NewBaseEvent(),
				Name:      env.Event,
				LeadID:    env.LeadID,
				Reason:    ReasonAlreadyPushed,
			})
		}
		return nil
	}

	env.PushedAt = now.UTC()

	s.journal.Append(env)

	if s.repo != nil {
		if err := s.repo.Insert(ctx, env); err != nil {
			s.log.SinkError("persist", env.Event, err)
		}
	}

	if s.dispatcher != nil && env.Meta.Send {
		if err := s.dispatcher.Enqueue(ctx, env); err != nil {
			s.log.SinkError("enqueue", env.Event, err)
		}
	}

	return nil
}

// Forget clears the at-most-once state for one event id, bridge records
// included since they share the primary's id. Called when the guard state
// covering that id is reset, so the next fire lands instead of being
// absorbed as a duplicate from the previous session.
func (s *Service) Forget(eventID string) {
	s.mu.Lock()
	delete(s.seen, eventID)
	s.mu.Unlock()
}

// markSeen records the pair and reports whether it was new within the
// dedup window. Expired entries are swept at most once per window.
func (s *Service) markSeen(eventID, event string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.ttl {
		for id, byEvent := range s.seen {
			for name, at := range byEvent {
				if now.Sub(at) >= s.ttl {
					delete(byEvent, name)
				}
			}
			if len(byEvent) == 0 {
				delete(s.seen, id)
			}
		}
		s.lastSweep = now
	}

	if at, dup := s.seen[eventID][event]; dup {
		if s.ttl <= 0 || now.Sub(at) < s.ttl {
			return false
		}
	}

	byEvent := s.seen[eventID]
	if byEvent == nil {
		byEvent = make(map[string]time.Time)
		s.seen[eventID] = byEvent
	}
	byEvent[event] = now
	return true
}

// Journal exposes the in-memory journal for the debug registry.
func (s *Service) Journal() *Journal {
	return s.journal
}

var _ Sink = (*Service)(nil)
