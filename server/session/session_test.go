package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

func TestStart(t *testing.T) {
	s := Start("u1", "c1", "dev1", base)

	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, base, s.StartTime)
	assert.Nil(t, s.EndTime)
	assert.Equal(t, []Event{{Type: EventStart, Timestamp: base}}, s.Events)
	assert.True(t, s.OwnedBy("u1", "c1"))
	assert.False(t, s.OwnedBy("u1", "c2"))
	assert.False(t, s.OwnedBy("u2", "c1"))
}

func TestRuleFor(t *testing.T) {
	tests := []struct {
		event      EventType
		from       []Status
		to         Status
		idempotent bool
	}{
		{EventPause, []Status{StatusActive}, StatusPaused, false},
		{EventResume, []Status{StatusPaused}, StatusActive, false},
		{EventEnd, []Status{StatusActive, StatusPaused}, StatusEnded, true},
	}
	for _, tt := range tests {
		rule, ok := RuleFor(tt.event)
		assert.True(t, ok, string(tt.event))
		assert.Equal(t, tt.from, rule.From, string(tt.event))
		assert.Equal(t, tt.to, rule.To, string(tt.event))
		assert.Equal(t, tt.idempotent, rule.Idempotent, string(tt.event))
	}
}

func TestRuleForStartUnknown(t *testing.T) {
	_, ok := RuleFor(EventStart)
	assert.False(t, ok)

	_, ok = RuleFor(EventType("teleport"))
	assert.False(t, ok)
}

func TestActivityScoreWeighted(t *testing.T) {
	// 10s at score 100 plus 30s at score 0 averages to 25, not 50:
	// weighting is by duration, never by observation count.
	s := &Session{
		TotalDuration:    40,
		SumWeightedScore: 100*10 + 0*30,
	}
	assert.InDelta(t, 25.0, s.ActivityScore(), 1e-9)
}

func TestActivityScoreNoObservations(t *testing.T) {
	s := &Session{}
	assert.Equal(t, 0.0, s.ActivityScore())
}

func TestPauseDuration(t *testing.T) {
	s := &Session{
		Status: StatusEnded,
		Events: []Event{
			{Type: EventStart, Timestamp: base},
			{Type: EventPause, Timestamp: base.Add(10 * time.Minute)},
			{Type: EventResume, Timestamp: base.Add(15 * time.Minute)},
			{Type: EventPause, Timestamp: base.Add(20 * time.Minute)},
			{Type: EventEnd, Timestamp: base.Add(30 * time.Minute)},
		},
	}
	assert.Equal(t, 15*time.Minute, s.PauseDuration(base.Add(time.Hour)))
}

func TestPauseDurationStillPaused(t *testing.T) {
	s := &Session{
		Status: StatusPaused,
		Events: []Event{
			{Type: EventStart, Timestamp: base},
			{Type: EventPause, Timestamp: base.Add(10 * time.Minute)},
		},
	}
	assert.Equal(t, 5*time.Minute, s.PauseDuration(base.Add(15*time.Minute)))
}

func TestSummarize(t *testing.T) {
	s := &Session{
		TotalDuration:    120,
		ActiveDuration:   90,
		IdleDuration:     30,
		SumWeightedScore: 6000,
		ScreenshotsCount: 3,
		Events: []Event{
			{Type: EventStart, Timestamp: base},
			{Type: EventPause, Timestamp: base.Add(time.Minute)},
			{Type: EventResume, Timestamp: base.Add(2 * time.Minute)},
		},
	}
	sum := s.Summarize(base.Add(10 * time.Minute))

	assert.Equal(t, int64(120), sum.TotalDuration)
	assert.Equal(t, int64(90), sum.ActiveDuration)
	assert.Equal(t, int64(30), sum.IdleDuration)
	assert.Equal(t, int64(60), sum.PauseDuration)
	assert.Equal(t, 3, sum.ScreenshotsCount)
	assert.InDelta(t, 50.0, sum.ActivityScore, 1e-9)
}
