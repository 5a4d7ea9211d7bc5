package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/lock"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
	"github.com/lingobox/lingobox/internal/repository/sqlstore"
	"github.com/lingobox/lingobox/internal/services"
	"github.com/lingobox/lingobox/internal/testutil"
)

const today = "2024-03-10"

type ActivityServiceSuite struct {
	suite.Suite
	db       *db.DB
	clock    *clock.Fixed
	daily    repository.DailyActivityRepository
	activity services.ActivityService
	levels   services.LevelService
}

func (s *ActivityServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.clock = clock.NewFixed(testutil.Epoch)
	s.daily = sqlstore.NewDailyActivityRepository(s.db)
	s.activity = services.NewActivityService(
		s.db,
		sqlstore.NewActivityEventRepository(s.db),
		s.daily,
		lock.NewKeyedMutex(),
		s.clock,
		time.UTC,
	)
	s.levels = services.NewLevelService(s.daily, s.activity)
	testutil.SeedUser(s.T(), s.db, "alice")
}

func (s *ActivityServiceSuite) record(kind string, secs float64) *models.RecordResult {
	res, err := s.activity.Record(context.Background(), "alice", models.RecordActivityInput{ActivityType: kind, Duration: secs})
	s.Require().NoError(err)
	return res
}

func (s *ActivityServiceSuite) TestShortEventDoesNotCount() {
	res := s.record("video", 5)

	s.False(res.DailyActivity.VideoWatched)
	s.Equal(0, res.Progress)
	s.Equal(0, res.MarkedCount)
	s.False(res.Activity.Counted)
	s.Equal(today, res.DailyActivity.Day)
}

func (s *ActivityServiceSuite) TestShortEventsSumPastThreshold() {
	s.record("video", 6)
	res := s.record("video", 7)

	s.True(res.DailyActivity.VideoWatched)
	s.Equal(20, res.Progress)
	s.Equal(2, res.MarkedCount)
	s.True(res.Activity.Counted)
	s.Require().NotNil(res.Activity.CountedAt)
}

func (s *ActivityServiceSuite) TestCountedEventsExcludedFromLaterSums() {
	s.record("video", 6)
	s.record("video", 7)
	s.clock.Advance(time.Hour)

	res := s.record("podcast", 15)
	s.True(res.DailyActivity.PodcastListened)
	s.True(res.DailyActivity.VideoWatched)
	s.Equal(40, res.Progress)
	s.Equal(1, res.MarkedCount)

	agg, err := s.activity.AggregateDay(context.Background(), "alice", today)
	s.Require().NoError(err)
	s.Zero(agg.MarkedCount)
	s.Empty(agg.Flipped)
	s.Equal(40, agg.DailyActivity.Progress)
}

func (s *ActivityServiceSuite) TestInvalidKindRejected() {
	_, err := s.activity.Record(context.Background(), "alice", models.RecordActivityInput{ActivityType: "movie", Duration: 30})
	s.True(errors.IsValidation(err))

	_, err = s.activity.Record(context.Background(), "alice", models.RecordActivityInput{ActivityType: "video", Duration: 0})
	s.True(errors.IsValidation(err))
}

func (s *ActivityServiceSuite) TestCompletedAtSetOnceAtFullProgress() {
	for _, k := range []string{"video", "podcast", "words", "article"} {
		s.record(k, 12)
	}
	res := s.record("song", 12)
	s.Equal(100, res.Progress)
	s.Require().NotNil(res.DailyActivity.CompletedAt)
	completed := *res.DailyActivity.CompletedAt

	s.clock.Advance(time.Hour)
	res = s.record("video", 30)
	s.Require().NotNil(res.DailyActivity.CompletedAt)
	s.True(completed.Equal(*res.DailyActivity.CompletedAt))
	s.Zero(res.MarkedCount)
	s.False(res.Activity.Counted)
}

func (s *ActivityServiceSuite) TestConcurrentAggregationMarksEachEventOnce() {
	for i := 0; i < 10; i++ {
		testutil.SeedEvent(s.T(), s.db, "alice", models.KindVideo, 2, testutil.Epoch.Add(-time.Duration(i)*time.Minute))
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		marked int
		flips  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.activity.AggregateDay(context.Background(), "alice", today)
			if !s.NoError(err) {
				return
			}
			mu.Lock()
			marked += res.MarkedCount
			flips += len(res.Flipped)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Equal(10, marked)
	s.Equal(1, flips)
	d, err := s.daily.Get(context.Background(), "alice", today)
	s.Require().NoError(err)
	s.True(d.VideoWatched)
	s.Equal(20, d.Progress)
}

func (s *ActivityServiceSuite) TestRecordBatchSkipsInvalidItems() {
	yesterday := testutil.Epoch.Add(-24 * time.Hour)
	res, err := s.activity.RecordBatch(context.Background(), "alice", []models.RecordActivityInput{
		{ActivityType: "video", Duration: 12},
		{ActivityType: "nope", Duration: 12},
		{ActivityType: "words", Duration: -1},
		{ActivityType: "Article", Duration: 30, Timestamp: &yesterday},
	})
	s.Require().NoError(err)
	s.Equal(2, res.Processed)
	s.Len(res.Activities, 2)
	s.ElementsMatch([]models.UserDay{
		{UserID: "alice", Day: today},
		{UserID: "alice", Day: "2024-03-09"},
	}, res.Days)

	// batch inserts stay uncounted until the day is aggregated
	for _, a := range res.Activities {
		s.False(a.Counted)
	}
	pending, err := s.activity.PendingDays(context.Background(), testutil.Epoch.Add(-48*time.Hour))
	s.Require().NoError(err)
	s.Len(pending, 2)

	for _, d := range res.Days {
		_, err := s.activity.AggregateDay(context.Background(), d.UserID, d.Day)
		s.Require().NoError(err)
	}
	pending, err = s.activity.PendingDays(context.Background(), testutil.Epoch.Add(-48*time.Hour))
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ActivityServiceSuite) TestAggregateDayRejectsBadDay() {
	_, err := s.activity.AggregateDay(context.Background(), "alice", "10/03/2024")
	s.True(errors.IsValidation(err))
}

func (s *ActivityServiceSuite) TestStatusIsReadOnly() {
	status, err := s.activity.Status(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(today, status.Overall.Date)
	s.Equal(0, status.Overall.Progress)
	s.False(status.Video.HasActivities)

	_, err = s.daily.Get(context.Background(), "alice", today)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *ActivityServiceSuite) TestStatusReportsRecordedAndProcessedKinds() {
	s.record("video", 12)
	s.record("podcast", 3)

	status, err := s.activity.Status(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(models.KindStatus{Processed: true, HasActivities: true, IsRegistered: true}, status.Video)
	s.Equal(models.KindStatus{Processed: false, HasActivities: true, IsRegistered: false}, status.Podcast)
	s.False(status.Words.HasActivities)
	s.Equal(20, status.Overall.Progress)
}

func (s *ActivityServiceSuite) TestLevelCountsPerfectDays() {
	level, err := s.levels.Level(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(1, level.CurrentLevel)
	s.Equal(4, level.TasksRequired)
	s.Nil(level.TodaysActivity)

	yesterday := testutil.Epoch.Add(-24 * time.Hour)
	for _, k := range []string{"video", "podcast", "words", "article", "song"} {
		_, err := s.activity.Record(context.Background(), "alice", models.RecordActivityInput{
			ActivityType: k, Duration: 20, Timestamp: &yesterday,
		})
		s.Require().NoError(err)
	}
	s.record("words", 20)
	s.record("song", 20)

	level, err = s.levels.Level(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(2, level.CurrentLevel)
	s.Equal(1, level.PerfectDays)
	s.Equal(1, level.TasksCompleted)
	s.Equal(40, level.TodaysProgress)
	s.Require().NotNil(level.TodaysActivity)
	s.True(level.TodaysActivity.WordsLearned)
}

func TestActivityServiceSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceSuite))
}
