// Package session tracks one user's audit lifecycle:
// idle -> analyzing -> complete | error, and back to idle on reset or dismiss.
package session

import (
	"fmt"
	"time"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateComplete  State = "complete"
	StateError     State = "error"
)

// Failure is the error shown to the user.
type Failure struct {
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	Remediation []string `json:"remediation,omitempty"`
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID        string              `json:"id"`
	State     State               `json:"state"`
	Report    *domain.AuditReport `json:"report,omitempty"`
	Failure   *Failure            `json:"error,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Session is not safe for concurrent use; Store serialises access.
type Session struct {
	id        string
	state     State
	report    *domain.AuditReport
	failure   *Failure
	updatedAt time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, state: StateIdle, updatedAt: now}
}

func (s *Session) State() State { return s.state }

// Begin starts an analysis. Only an idle session can begin.
func (s *Session) Begin(now time.Time) error {
	switch s.state {
	case StateIdle:
	case StateAnalyzing:
		return domain.WrapError(domain.ErrAnalysisInProgress, "begin analysis", fmt.Errorf("session %s", s.id))
	default:
		return s.invalid("begin")
	}
	s.state = StateAnalyzing
	s.report = nil
	s.failure = nil
	s.updatedAt = now
	return nil
}

func (s *Session) Complete(report *domain.AuditReport, now time.Time) error {
	if s.state != StateAnalyzing {
		return s.invalid("complete")
	}
	s.state = StateComplete
	s.report = report
	s.failure = nil
	s.updatedAt = now
	return nil
}

// Fail stores the user-facing form of err.
func (s *Session) Fail(err error, now time.Time) error {
	if s.state != StateAnalyzing {
		return s.invalid("fail")
	}
	s.state = StateError
	s.report = nil
	s.failure = &Failure{
		Kind:        domain.Kind(err),
		Message:     domain.UserMessage(err),
		Remediation: domain.Remediation(err),
	}
	s.updatedAt = now
	return nil
}

// Reset returns a finished session to idle and drops its result.
func (s *Session) Reset(now time.Time) error {
	if s.state != StateComplete && s.state != StateError {
		return s.invalid("reset")
	}
	s.toIdle(now)
	return nil
}

// Dismiss clears a displayed error.
func (s *Session) Dismiss(now time.Time) error {
	if s.state != StateError {
		return s.invalid("dismiss")
	}
	s.toIdle(now)
	return nil
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{ID: s.id, State: s.state, Report: s.report, UpdatedAt: s.updatedAt}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	return snap
}

func (s *Session) toIdle(now time.Time) {
	s.state = StateIdle
	s.report = nil
	s.failure = nil
	s.updatedAt = now
}

func (s *Session) invalid(action string) error {
	return domain.WrapError(domain.ErrInvalidTransition, action, fmt.Errorf("session %s is %s", s.id, s.state))
}
