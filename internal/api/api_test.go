package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lingobox/lingobox/internal/auth"
	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/lock"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository/sqlstore"
	"github.com/lingobox/lingobox/internal/services"
	"github.com/lingobox/lingobox/internal/testutil"
	"github.com/lingobox/lingobox/internal/testutil/mocks"
)

const testSecret = "0123456789abcdef0123"

type APISuite struct {
	suite.Suite
	db      *db.DB
	clock   *clock.Fixed
	auth    *auth.JWTAuthenticator
	queue   *mocks.MockJobQueue
	handler http.Handler
	token   string
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.clock = clock.NewFixed(testutil.Epoch)
	s.auth = auth.NewJWTAuthenticator(testSecret, "lingobox", time.Hour, s.clock)
	s.queue = new(mocks.MockJobQueue)

	cards := sqlstore.NewCardRepository(s.db)
	books := sqlstore.NewBookRepository(s.db)
	daily := sqlstore.NewDailyActivityRepository(s.db)
	activity := services.NewActivityService(s.db, sqlstore.NewActivityEventRepository(s.db), daily, lock.NewKeyedMutex(), s.clock, time.UTC)

	srv := &Server{
		Reviews:        services.NewReviewService(s.db, cards, sqlstore.NewReviewRepository(s.db), s.clock),
		Cards:          services.NewCardService(cards, books, s.clock),
		Books:          services.NewBookService(books, s.clock),
		Activity:       activity,
		Levels:         services.NewLevelService(daily, activity),
		Imports:        services.NewImportService(s.db, cards, books, s.clock),
		Users:          services.NewUserService(sqlstore.NewUserRepository(s.db), s.clock),
		Auth:           s.auth,
		JobQueue:       s.queue,
		Limiter:        NewRateLimiter(1000, 1000),
		Health:         s.db,
		MaxImportBytes: 1 << 20,
	}
	s.handler = srv.Routes()
	s.token = s.issue("alice", models.RoleUser)
}

func (s *APISuite) TearDownTest() {
	s.queue.AssertExpectations(s.T())
}

func (s *APISuite) issue(user, role string) string {
	tok, err := s.auth.Issue(user, role)
	s.Require().NoError(err)
	return tok
}

func (s *APISuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error errorBody `json:"error"`
	}
	s.decode(rec, &body)
	return body.Error.Code
}

func (s *APISuite) TestHealth() {
	s.token = ""
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestRequiresBearerToken() {
	s.token = ""
	rec := s.do(http.MethodGet, "/api/flashcards/due", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("UNAUTHENTICATED", s.errorCode(rec))

	s.token = "not-a-jwt"
	rec = s.do(http.MethodGet, "/api/flashcards/due", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestCardLifecycle() {
	rec := s.do(http.MethodPost, "/api/flashcards", map[string]any{"front": "Hund", "back": "dog"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var card models.Card
	s.decode(rec, &card)
	s.Equal(1, card.BoxNumber)

	rec = s.do(http.MethodGet, "/api/flashcards/due", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var due []map[string]any
	s.decode(rec, &due)
	s.Require().Len(due, 1)
	s.Equal("Hund", due[0]["front"])
	s.Contains(due[0], "boxNumber")
	s.NotContains(due[0], "nextReviewAt")

	rec = s.do(http.MethodPost, "/api/flashcards/review", map[string]any{"cardId": card.ID, "isCorrect": true})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.JSONEq(`{"success":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/flashcards/due", nil)
	s.JSONEq(`[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/flashcards/progress", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var progress models.FlashcardProgress
	s.decode(rec, &progress)
	s.Equal(1, progress.TotalCards)
	s.Equal(20, progress.OverallProgress)
	s.Equal("Box 2", progress.Data[0].Box)

	rec = s.do(http.MethodDelete, "/api/flashcards/"+itoa(card.ID), nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/api/flashcards/"+itoa(card.ID), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestReviewValidation() {
	rec := s.do(http.MethodPost, "/api/flashcards/review", `{"cardId": 1}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(rec))

	rec = s.do(http.MethodPost, "/api/flashcards/review", `{"cardId": 1, "isCorrect": "yes"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/flashcards/review", `{"cardId": 42, "isCorrect": false}`)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("NOT_FOUND", s.errorCode(rec))
}

func (s *APISuite) TestReviewOtherUsersCardIsNotFound() {
	testutil.SeedUser(s.T(), s.db, "bob")
	id := testutil.SeedCard(s.T(), s.db, "bob", "Katze", 1, testutil.Epoch)

	rec := s.do(http.MethodPost, "/api/flashcards/review", map[string]any{"cardId": id, "isCorrect": true})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestCaptureIsIdempotentPerWord() {
	body := map[string]string{"word": "Apfel", "translation": "apple", "context": "Ich esse einen Apfel."}
	rec := s.do(http.MethodPost, "/api/flashcards/capture", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/flashcards/capture", body)
	s.Require().Equal(http.StatusOK, rec.Code)
	var res models.CaptureResult
	s.decode(rec, &res)
	s.False(res.Created)
	s.Equal(models.CardSourceVocabulary, res.Card.Source)
}

func (s *APISuite) TestBooksAndImport() {
	rec := s.do(http.MethodPost, "/api/books", map[string]string{"title": "A1"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var book models.Book
	s.decode(rec, &book)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("bookId", itoa(book.ID)))
	fw, err := mw.CreateFormFile("file", "cards.csv")
	s.Require().NoError(err)
	_, err = fw.Write([]byte("front,back\neins,one\nzwei,two\n"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/flashcards/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.JSONEq(`{"totalRows":2,"created":2,"skipped":0,"errors":[]}`, rr.Body.String())

	rec = s.do(http.MethodGet, "/api/books", nil)
	var books []models.BookWithCount
	s.decode(rec, &books)
	s.Require().Len(books, 1)
	s.Equal(2, books[0].CardCount)

	rec = s.do(http.MethodGet, "/api/flashcards?bookId="+itoa(book.ID)+"&limit=1", nil)
	var cards []models.Card
	s.decode(rec, &cards)
	s.Len(cards, 1)

	rec = s.do(http.MethodDelete, "/api/books/"+itoa(book.ID), nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestRecordActivity() {
	rec := s.do(http.MethodPost, "/api/activity", map[string]any{"activityType": "video", "duration": 6})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/activity", map[string]any{"activityType": "VIDEO", "duration": 7, "pathname": "/watch/1"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var res models.RecordResult
	s.decode(rec, &res)
	s.Equal(20, res.Progress)
	s.Equal(2, res.MarkedCount)
	s.True(res.DailyActivity.VideoWatched)

	rec = s.do(http.MethodPost, "/api/activity", map[string]any{"activityType": "movie", "duration": 7})
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/activity", map[string]any{"activityType": "song", "duration": 0})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/activity/status", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var status models.ActivityStatus
	s.decode(rec, &status)
	s.True(status.Video.Processed)
	s.Equal(20, status.Overall.Progress)
	s.Equal("2024-03-10", status.Overall.Date)

	rec = s.do(http.MethodGet, "/api/user/level", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var level models.UserLevel
	s.decode(rec, &level)
	s.Equal(1, level.CurrentLevel)
	s.Equal(1, level.TasksCompleted)
	s.Equal(4, level.TasksRequired)
}

func (s *APISuite) TestBatchEnqueuesOneJobPerDay() {
	s.queue.On("EnqueueAggregation", "alice", "2024-03-10").Return(nil).Once()

	rec := s.do(http.MethodPost, "/api/activity/batch", `{"activities":[
		{"activityType":"words","duration":6},
		{"activityType":"words","duration":"six"},
		{"activityType":"bogus","duration":6},
		{"activityType":"words","duration":6}
	]}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var res models.BatchRecordResult
	s.decode(rec, &res)
	s.Equal(2, res.Processed)
	s.Len(res.Activities, 2)
}

func (s *APISuite) TestBatchRunsInlineWhenQueueRejects() {
	s.queue.On("EnqueueAggregation", "alice", mock.Anything).Return(assertErr).Once()

	rec := s.do(http.MethodPost, "/api/activity/batch", map[string]any{
		"activities": []map[string]any{{"activityType": "article", "duration": 11}},
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/activity/status", nil)
	var status models.ActivityStatus
	s.decode(rec, &status)
	s.True(status.Article.Processed)
}

func (s *APISuite) TestBatchRequiresActivities() {
	rec := s.do(http.MethodPost, "/api/activity/batch", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestActivityRateLimited() {
	srvHandler := s.handler
	limited := &Server{
		Activity: nil,
		Auth:     s.auth,
		Limiter:  NewRateLimiter(0.001, 1),
	}
	s.handler = limited.Routes()
	defer func() { s.handler = srvHandler }()

	// first request passes the limiter and fails validation before reaching a service
	rec := s.do(http.MethodPost, "/api/activity", `{"activityType":"nope","duration":1}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/activity", `{"activityType":"nope","duration":1}`)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("RATE_LIMITED", s.errorCode(rec))
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
