package worksession

import (
	"time"
)

type WorkSession struct {
	ID          string
	ProjectID   string
	UserID      string
	StartAt     time.Time
	EndAt       *time.Time
	Description *string
	IsManual    bool
	Breaks      []Break
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Break struct {
	ID        string
	SessionID string
	StartAt   time.Time
	EndAt     *time.Time
}

func (s WorkSession) IsOpen() bool {
	return s.EndAt == nil
}

// EffectiveEnd is the stored end, or now for an open session.
func (s WorkSession) EffectiveEnd(now time.Time) time.Time {
	if s.EndAt != nil {
		return *s.EndAt
	}
	return now
}

// Gross is effective end minus start, never negative.
func (s WorkSession) Gross(now time.Time) time.Duration {
	d := s.EffectiveEnd(now).Sub(s.StartAt)
	if d < 0 {
		return 0
	}
	return d
}

// BreakDuration sums breaks after clamping each to the session's [start, effective end].
func (s WorkSession) BreakDuration(now time.Time) time.Duration {
	lo, hi := s.StartAt, s.EffectiveEnd(now)
	var total time.Duration
	for _, b := range s.Breaks {
		total += b.clampedDuration(lo, hi, now)
	}
	return total
}

// Net is gross minus breaks, clamped to zero.
func (s WorkSession) Net(now time.Time) time.Duration {
	net := s.Gross(now) - s.BreakDuration(now)
	if net < 0 {
		return 0
	}
	return net
}

// OpenBreak returns the break without an end, if any.
func (s WorkSession) OpenBreak() *Break {
	for i := range s.Breaks {
		if s.Breaks[i].EndAt == nil {
			return &s.Breaks[i]
		}
	}
	return nil
}

func (b Break) IsOpen() bool {
	return b.EndAt == nil
}

func (b Break) EffectiveEnd(now time.Time) time.Time {
	if b.EndAt != nil {
		return *b.EndAt
	}
	return now
}

func (b Break) clampedDuration(lo, hi, now time.Time) time.Duration {
	start, end := b.StartAt, b.EffectiveEnd(now)
	if start.Before(lo) {
		start = lo
	}
	if end.After(hi) {
		end = hi
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}
