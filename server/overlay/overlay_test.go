package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/worklens/worklens/server/database"
)

var claimDate = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

func interval(start, end time.Time, idle bool) database.ActivityInterval {
	return database.ActivityInterval{
		UserID:        "u1",
		IntervalStart: start,
		IntervalEnd:   end,
		Idle:          idle,
	}
}

func claim(status database.ClaimStatus, startTime, endTime string) database.TimeClaim {
	return database.TimeClaim{
		UserID:    "u1",
		Date:      claimDate,
		StartTime: startTime,
		EndTime:   endTime,
		Type:      database.ClaimMeeting,
		Status:    status,
	}
}

func TestApplyApprovedClaimFlipsIdle(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 5, h, m, 0, 0, time.UTC)
	}
	intervals := []database.ActivityInterval{
		interval(at(8, 50), at(8, 55), true),
		interval(at(9, 10), at(9, 15), true),
		interval(at(9, 40), at(9, 45), false),
	}

	out := Apply(intervals, []database.TimeClaim{claim(database.ClaimApproved, "09:00", "09:30")}, time.UTC)

	assert.True(t, out[0].Idle)
	assert.False(t, out[0].Claimed)
	assert.False(t, out[1].Idle)
	assert.True(t, out[1].Claimed)
	assert.False(t, out[2].Idle)
	assert.False(t, out[2].Claimed)
}

func TestApplyPendingClaimIgnored(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 10, 0, 0, time.UTC)
	intervals := []database.ActivityInterval{interval(at, at.Add(5*time.Minute), true)}

	for _, status := range []database.ClaimStatus{database.ClaimPending, database.ClaimRejected} {
		out := Apply(intervals, []database.TimeClaim{claim(status, "09:00", "09:30")}, time.UTC)
		assert.True(t, out[0].Idle, string(status))
		assert.False(t, out[0].Claimed, string(status))
	}
}

func TestApplyHalfOpenBoundaries(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 5, h, m, 0, 0, time.UTC)
	}
	claims := []database.TimeClaim{claim(database.ClaimApproved, "09:00", "09:30")}

	// Ends exactly at the claim start: no overlap.
	out := Apply([]database.ActivityInterval{interval(at(8, 55), at(9, 0), true)}, claims, time.UTC)
	assert.True(t, out[0].Idle)

	// Starts exactly at the claim end: no overlap.
	out = Apply([]database.ActivityInterval{interval(at(9, 30), at(9, 35), true)}, claims, time.UTC)
	assert.True(t, out[0].Idle)

	// Straddles the claim start by one second: overlap.
	out = Apply([]database.ActivityInterval{interval(at(8, 55), at(9, 0).Add(time.Second), true)}, claims, time.UTC)
	assert.False(t, out[0].Idle)
	assert.True(t, out[0].Claimed)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 10, 0, 0, time.UTC)
	intervals := []database.ActivityInterval{interval(at, at.Add(5*time.Minute), true)}

	out := Apply(intervals, []database.TimeClaim{claim(database.ClaimApproved, "09:00", "09:30")}, time.UTC)

	assert.False(t, out[0].Idle)
	assert.True(t, intervals[0].Idle)
	assert.False(t, intervals[0].Claimed)
}

func TestApplyBadClaimTimesIgnored(t *testing.T) {
	at := time.Date(2026, 3, 5, 9, 10, 0, 0, time.UTC)
	intervals := []database.ActivityInterval{interval(at, at.Add(5*time.Minute), true)}

	out := Apply(intervals, []database.TimeClaim{claim(database.ClaimApproved, "9am", "09:30")}, time.UTC)

	assert.True(t, out[0].Idle)
	assert.False(t, out[0].Claimed)
}
