package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
)

const DefaultTTL = 30 * time.Minute

// Store keeps sessions in memory. Sessions untouched for longer than the TTL
// are evicted, except while analyzing.
type Store struct {
	auditor ports.Auditor
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(auditor ports.Auditor, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		auditor:  auditor,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *Store) Create() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(uuid.NewString(), s.now())
	s.sessions[sess.id] = sess
	return sess.Snapshot()
}

func (s *Store) Get(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Submit runs one analysis for the session. The call blocks until the
// provider answers; a concurrent Submit on the same session fails with
// ErrAnalysisInProgress.
func (s *Store) Submit(ctx context.Context, id string, input domain.AuditInput) (Snapshot, error) {
	if err := s.begin(id); err != nil {
		return Snapshot{}, err
	}

	report, auditErr := s.auditor.Analyze(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if auditErr != nil {
		err = sess.Fail(auditErr, s.now())
	} else {
		err = sess.Complete(report, s.now())
	}
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *Store) Reset(id string) (Snapshot, error) {
	return s.apply(id, (*Session).Reset)
}

func (s *Store) Dismiss(id string) (Snapshot, error) {
	return s.apply(id, (*Session).Dismiss)
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.state != StateAnalyzing && sess.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps periodically until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("sessions_evicted", "count", n)
			}
		}
	}
}

func (s *Store) begin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	return sess.Begin(s.now())
}

func (s *Store) apply(id string, transition func(*Session, time.Time) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := transition(sess, s.now()); err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *Store) lookup(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "lookup session", fmt.Errorf("id %q", id))
	}
	return sess, nil
}
