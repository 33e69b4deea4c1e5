// Package overlay reclassifies idle observations covered by approved time
// claims. It is a pure read-time transform: the stored interval facts are
// never touched, and the result is recomputed on every query.
package overlay

import (
	"time"

	"github.com/worklens/worklens/server/database"
)

// span is a claim resolved to absolute instants.
type span struct {
	start time.Time
	end   time.Time
}

// Apply returns a copy of intervals where every interval overlapped by an
// approved claim is presented with idle=false and claimed=true. Overlap uses
// the half-open rule: intervalStart < claimEnd AND intervalEnd > claimStart.
// Claims that are not approved, or whose times of day do not parse, are
// ignored.
func Apply(intervals []database.ActivityInterval, claims []database.TimeClaim, loc *time.Location) []database.ActivityInterval {
	spans := make([]span, 0, len(claims))
	for _, c := range claims {
		if c.Status != database.ClaimApproved {
			continue
		}
		start, end, err := c.Bounds(loc)
		if err != nil {
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}

	out := make([]database.ActivityInterval, len(intervals))
	copy(out, intervals)
	if len(spans) == 0 {
		return out
	}

	for i := range out {
		for _, s := range spans {
			if out[i].IntervalStart.Before(s.end) && out[i].IntervalEnd.After(s.start) {
				out[i].Idle = false
				out[i].Claimed = true
				break
			}
		}
	}

	return out
}
