// Package timeline reconstructs a gapless, typed view of a user's day from
// discrete activity observations. It is a pure fold over a chronologically
// sorted slice, independent of storage.
package timeline

import (
	"fmt"
	"time"

	"github.com/worklens/worklens/server/database"
)

type SegmentType string

const (
	SegmentWork    SegmentType = "work"
	SegmentOffline SegmentType = "offline"
)

// gapThreshold is the largest silence between observations still treated as
// continuous. Anything longer gets a synthetic offline segment: the agent
// was asleep, crashed or killed.
const gapThreshold = 60 * time.Second

// Segment is a coalesced run of same-type intervals.
type Segment struct {
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	Type     SegmentType `json:"type"`
	Duration string      `json:"duration"`
}

// Reconstruct folds sorted intervals into typed segments. A segment breaks
// whenever the type flips or the agent went silent for longer than
// gapThreshold; on a type flip the closing segment ends where the next
// interval starts. Each silence between segments gets a synthetic offline
// segment spanning exactly the gap.
func Reconstruct(intervals []database.ActivityInterval) []Segment {
	if len(intervals) == 0 {
		return []Segment{}
	}

	merged := make([]Segment, 0)
	cur := Segment{
		Start: intervals[0].IntervalStart,
		End:   intervals[0].IntervalEnd,
		Type:  segmentType(intervals[0]),
	}
	for _, iv := range intervals[1:] {
		t := segmentType(iv)
		switch {
		case iv.IntervalStart.Sub(cur.End) > gapThreshold:
			merged = append(merged, cur)
			cur = Segment{Start: iv.IntervalStart, End: iv.IntervalEnd, Type: t}
		case t == cur.Type:
			cur.End = iv.IntervalEnd
		default:
			cur.End = iv.IntervalStart
			merged = append(merged, cur)
			cur = Segment{Start: iv.IntervalStart, End: iv.IntervalEnd, Type: t}
		}
	}
	merged = append(merged, cur)

	out := make([]Segment, 0, len(merged))
	for i, seg := range merged {
		if i > 0 {
			prevEnd := merged[i-1].End
			if gap := seg.Start.Sub(prevEnd); gap > gapThreshold {
				out = append(out, finishSegment(Segment{
					Start: prevEnd,
					End:   seg.Start,
					Type:  SegmentOffline,
				}))
			}
		}
		out = append(out, finishSegment(seg))
	}

	return out
}

func segmentType(iv database.ActivityInterval) SegmentType {
	if iv.Idle {
		return SegmentOffline
	}
	return SegmentWork
}

func finishSegment(seg Segment) Segment {
	seg.Duration = FormatDuration(seg.End.Sub(seg.Start))
	return seg
}

// FormatDuration renders a duration as HH:MM:SS. Hours do not wrap at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// DayIntervals is one user's observations for one local date.
type DayIntervals struct {
	UserID    string
	Date      string
	Intervals []database.ActivityInterval
}

// SplitByUserDay buckets intervals by (user, local date), preserving first
// appearance order of the buckets and chronological order inside each.
func SplitByUserDay(intervals []database.ActivityInterval, loc *time.Location) []DayIntervals {
	groups := make([]DayIntervals, 0)
	index := make(map[string]int)

	for _, iv := range intervals {
		date := iv.IntervalStart.In(loc).Format("2006-01-02")
		key := iv.UserID + "\x00" + date
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayIntervals{UserID: iv.UserID, Date: date})
		}
		groups[i].Intervals = append(groups[i].Intervals, iv)
	}

	return groups
}

// DaySummary is the cheap, non-detailed attendance row: first observation in,
// last observation out, summed active and idle seconds.
type DaySummary struct {
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	InTime        time.Time `json:"in_time"`
	FinishTime    time.Time `json:"finish_time"`
	ActiveSeconds int64     `json:"active_seconds"`
	IdleSeconds   int64     `json:"idle_seconds"`
}

// Summarize collapses one user-day bucket into its attendance row.
func Summarize(day DayIntervals) DaySummary {
	sum := DaySummary{UserID: day.UserID, Date: day.Date}
	if len(day.Intervals) == 0 {
		return sum
	}

	sum.InTime = day.Intervals[0].IntervalStart
	sum.FinishTime = day.Intervals[len(day.Intervals)-1].IntervalEnd
	for _, iv := range day.Intervals {
		if iv.Idle {
			sum.IdleSeconds += int64(iv.Duration)
		} else {
			sum.ActiveSeconds += int64(iv.Duration)
		}
	}
	return sum
}
