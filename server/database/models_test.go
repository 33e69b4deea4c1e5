package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampedDuration(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want uint32
	}{
		{"whole seconds", start.Add(30 * time.Second), 30},
		{"fraction floors", start.Add(30*time.Second + 900*time.Millisecond), 30},
		{"zero span", start, 0},
		{"inverted clamps to zero", start.Add(-10 * time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := ActivityInterval{IntervalStart: start, IntervalEnd: tt.end}
			assert.Equal(t, tt.want, iv.ClampedDuration())
		})
	}
}

func TestSummarizeBatch(t *testing.T) {
	sum := SummarizeBatch([]ActivityInterval{
		{Duration: 10, ActivityScore: 100, Idle: false},
		{Duration: 30, ActivityScore: 0, Idle: true},
	})

	assert.Equal(t, int64(40), sum.TotalDur)
	assert.Equal(t, int64(10), sum.ActiveDur)
	assert.Equal(t, int64(30), sum.IdleDur)
	assert.InDelta(t, 1000.0, sum.WeightedScoreSum, 1e-9)
}

func TestSummarizeBatchEmpty(t *testing.T) {
	assert.Equal(t, BatchSummary{}, SummarizeBatch(nil))
}

func TestValidClaimType(t *testing.T) {
	for _, ct := range []ClaimType{ClaimMeeting, ClaimCall, ClaimBreak, ClaimOther} {
		assert.True(t, ValidClaimType(ct), string(ct))
	}
	assert.False(t, ValidClaimType(ClaimType("Vacation")))
	assert.False(t, ValidClaimType(ClaimType("")))
}

func TestClaimBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	c := TimeClaim{
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, loc),
		StartTime: "09:15",
		EndTime:   "10:45",
	}

	start, end, err := c.Bounds(loc)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 9, 15, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 5, 10, 45, 0, 0, loc), end)
}

func TestClaimBoundsInvalid(t *testing.T) {
	c := TimeClaim{
		Date:      time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		StartTime: "nine",
		EndTime:   "10:45",
	}

	_, _, err := c.Bounds(time.UTC)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClaimMinutes(t *testing.T) {
	m, err := ClaimMinutes("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = ClaimMinutes("00:00")
	assert.NoError(t, err)
	assert.Equal(t, 0, m)

	_, err = ClaimMinutes("25:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ClaimMinutes("9:3")
	assert.ErrorIs(t, err, ErrValidation)
}
