// Package activity holds the pure daily-activity rules: the counting threshold,
// the progress formula, and the flag transitions applied by aggregation.
package activity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lingobox/lingobox/internal/models"
)

// CountThresholdSeconds is the cumulative uncounted duration a kind needs within
// one day before its flag flips.
const CountThresholdSeconds = 10.0

// DayLayout is the canonical calendar-day key format.
const DayLayout = "2006-01-02"

// TrackedKinds are the kinds that contribute to progress.
var TrackedKinds = []models.ActivityKind{
	models.KindVideo,
	models.KindPodcast,
	models.KindWords,
	models.KindArticle,
	models.KindSong,
}

// LevelKinds are the kinds counted as today's tasks for the level view.
var LevelKinds = []models.ActivityKind{
	models.KindVideo,
	models.KindPodcast,
	models.KindWords,
	models.KindArticle,
}

// Progress returns round(100 * flags / 5), capped at 100.
func Progress(d models.DailyActivity) int {
	n := 0
	for _, k := range TrackedKinds {
		if d.Flag(k) {
			n++
		}
	}
	return min(100, int(math.Round(100*float64(n)/float64(len(TrackedKinds)))))
}

// CompletedTasks counts the level-gating kinds done on d.
func CompletedTasks(d models.DailyActivity) int {
	n := 0
	for _, k := range LevelKinds {
		if d.Flag(k) {
			n++
		}
	}
	return n
}

// Outcome describes what Apply changed.
type Outcome struct {
	Flipped    []models.ActivityKind
	CountedIDs []int64
	Completed  bool
}

// Changed reports whether the day row needs to be written back.
func (o Outcome) Changed() bool {
	return len(o.Flipped) > 0 || o.Completed
}

// Apply folds uncounted events into day. Only kinds whose flag flips from false
// to true have their events collected for marking; events of kinds already done
// or still under the threshold stay uncounted. Callers must pass only uncounted
// events for day.
func Apply(day *models.DailyActivity, events []models.ActivityEvent, now time.Time) Outcome {
	sums := make(map[models.ActivityKind]float64)
	ids := make(map[models.ActivityKind][]int64)
	for _, e := range events {
		if e.Counted {
			continue
		}
		sums[e.Kind] += e.DurationSeconds
		ids[e.Kind] = append(ids[e.Kind], e.ID)
	}

	var out Outcome
	for _, k := range TrackedKinds {
		if day.Flag(k) || sums[k] < CountThresholdSeconds {
			continue
		}
		day.SetFlag(k, true)
		out.Flipped = append(out.Flipped, k)
		out.CountedIDs = append(out.CountedIDs, ids[k]...)
	}
	sort.Slice(out.CountedIDs, func(i, j int) bool { return out.CountedIDs[i] < out.CountedIDs[j] })

	day.Progress = Progress(*day)
	if day.Progress >= 100 && day.CompletedAt == nil {
		t := now
		day.CompletedAt = &t
		out.Completed = true
	}
	return out
}

// DayKey returns the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// DayBounds returns the UTC half-open interval [start, end) covering day in loc.
// The end is the next local midnight, so DST days are 23 or 25 hours long.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse day %q: %w", day, err)
	}
	return start.UTC(), start.AddDate(0, 0, 1).UTC(), nil
}

// ValidDay reports whether day is a well-formed day key.
func ValidDay(day string) bool {
	_, err := time.Parse(DayLayout, day)
	return err == nil
}
