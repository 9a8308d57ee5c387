package utils

import (
	"context"
	"time"
)

// Session is a cancellable lifetime (a connection, the simulation loop)
// that remembers why it ended.
type Session struct {
	context   context.Context
	cancel    context.CancelCauseFunc
	startTime time.Time
}

func NewSession(ctx context.Context) Session {
	ctx, cancel := context.WithCancelCause(ctx)
	return Session{
		context:   ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

func (s *Session) Started() time.Time {
	return s.startTime
}

func (s *Session) Uptime() time.Duration {
	return time.Since(s.startTime)
}

func (s *Session) Ctx() context.Context {
	return s.context
}

func (s *Session) IsDone() bool {
	return s.context.Err() != nil
}

// End cancels the session. Only the first reason is kept.
func (s *Session) End(reason error) {
	s.cancel(reason)
}

func (s *Session) Cancel() {
	s.cancel(context.Canceled)
}

// Reason is nil while the session is running.
func (s *Session) Reason() error {
	return context.Cause(s.context)
}
