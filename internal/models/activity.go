package models

import (
	"fmt"
	"strings"
	"time"
)

// ActivityKind is the closed set of tracked engagement kinds.
type ActivityKind string

const (
	KindVideo   ActivityKind = "video"
	KindPodcast ActivityKind = "podcast"
	KindWords   ActivityKind = "words"
	KindArticle ActivityKind = "article"
	KindSong    ActivityKind = "song"
)

// ParseActivityKind accepts only the five known kinds.
func ParseActivityKind(s string) (ActivityKind, error) {
	k := ActivityKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindVideo, KindPodcast, KindWords, KindArticle, KindSong:
		return k, nil
	}
	return "", fmt.Errorf("unknown activity kind %q", s)
}

// ActivityEvent is a raw, client-reported unit of engagement.
type ActivityEvent struct {
	ID              int64        `db:"id" json:"id"`
	UserID          string       `db:"user_id" json:"userId"`
	Kind            ActivityKind `db:"kind" json:"activityType"`
	DurationSeconds float64      `db:"duration_seconds" json:"duration"`
	ContentRef      string       `db:"content_ref" json:"contentRef,omitempty"`
	SourcePath      string       `db:"source_path" json:"pathname,omitempty"`
	Counted         bool         `db:"counted" json:"counted"`
	CountedAt       *time.Time   `db:"counted_at" json:"countedAt,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"timestamp"`
}

// DailyActivity is the per-user, per-day aggregation target.
type DailyActivity struct {
	ID              int64      `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"userId"`
	Day             string     `db:"day" json:"date"`
	VideoWatched    bool       `db:"video_watched" json:"videoWatched"`
	PodcastListened bool       `db:"podcast_listened" json:"podcastListened"`
	WordsLearned    bool       `db:"words_learned" json:"wordsLearned"`
	ArticleRead     bool       `db:"article_read" json:"articleRead"`
	SongListened    bool       `db:"song_listened" json:"songListened"`
	Progress        int        `db:"progress" json:"progress"`
	CompletedAt     *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// Flag returns the completion flag for kind.
func (d *DailyActivity) Flag(kind ActivityKind) bool {
	switch kind {
	case KindVideo:
		return d.VideoWatched
	case KindPodcast:
		return d.PodcastListened
	case KindWords:
		return d.WordsLearned
	case KindArticle:
		return d.ArticleRead
	case KindSong:
		return d.SongListened
	}
	return false
}

// SetFlag sets the completion flag for kind.
func (d *DailyActivity) SetFlag(kind ActivityKind, v bool) {
	switch kind {
	case KindVideo:
		d.VideoWatched = v
	case KindPodcast:
		d.PodcastListened = v
	case KindWords:
		d.WordsLearned = v
	case KindArticle:
		d.ArticleRead = v
	case KindSong:
		d.SongListened = v
	}
}

// RecordActivityInput is one client-reported event before validation.
type RecordActivityInput struct {
	ActivityType string     `json:"activityType" validate:"required,oneof=video podcast words article song"`
	Duration     float64    `json:"duration" validate:"gt=0"`
	Pathname     string     `json:"pathname" validate:"max=2048"`
	ContentRef   string     `json:"contentRef" validate:"max=512"`
	Timestamp    *time.Time `json:"timestamp"`
}

// RecordResult is returned by the single-event path.
type RecordResult struct {
	Activity      ActivityEvent `json:"activity"`
	DailyActivity DailyActivity `json:"dailyActivity"`
	MarkedCount   int           `json:"markedCount"`
	Progress      int           `json:"progress"`
}

// BatchRecordResult is returned by the batch path.
type BatchRecordResult struct {
	Processed  int             `json:"processed"`
	Activities []ActivityEvent `json:"activities"`
	Days       []UserDay       `json:"-"`
}

// AggregationResult reports what one aggregate-day run changed.
type AggregationResult struct {
	DailyActivity DailyActivity  `json:"dailyActivity"`
	Flipped       []ActivityKind `json:"flipped"`
	MarkedCount   int            `json:"markedCount"`
	CountedIDs    []int64        `json:"-"`
}

// KindStatus is the per-kind status projection.
type KindStatus struct {
	Processed     bool `json:"processed"`
	HasActivities bool `json:"hasActivities"`
	IsRegistered  bool `json:"isRegistered"`
}

// OverallStatus carries the day's progress.
type OverallStatus struct {
	Progress int    `json:"progress"`
	Date     string `json:"date"`
}

// ActivityStatus is the read-only view of one day.
type ActivityStatus struct {
	Video   KindStatus    `json:"video"`
	Podcast KindStatus    `json:"podcast"`
	Words   KindStatus    `json:"words"`
	Article KindStatus    `json:"article"`
	Overall OverallStatus `json:"overall"`
}

// UserLevel is derived from the perfect-day count.
type UserLevel struct {
	CurrentLevel   int            `json:"currentLevel"`
	PerfectDays    int            `json:"perfectDays"`
	TasksCompleted int            `json:"tasksCompleted"`
	TasksRequired  int            `json:"tasksRequired"`
	TodaysProgress int            `json:"todaysProgress"`
	TodaysActivity *DailyActivity `json:"todaysActivity"`
}

// UserDay identifies one aggregation target.
type UserDay struct {
	UserID string `db:"user_id"`
	Day    string `db:"day"`
}
