package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
)

const maxBatchItems = 500

type batchRequest struct {
	Activities []json.RawMessage `json:"activities"`
}

func normalizeActivity(in *models.RecordActivityInput) {
	in.ActivityType = strings.ToLower(strings.TrimSpace(in.ActivityType))
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in models.RecordActivityInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	normalizeActivity(&in)
	if err := validateStruct(&in); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.Activity.Record(r.Context(), user.ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleRecordBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Activities == nil {
		handleError(w, r, errors.NewValidationError("activities", "is required"))
		return
	}
	if len(req.Activities) > maxBatchItems {
		handleError(w, r, errors.NewValidationError("activities", "must contain at most 500 items"))
		return
	}

	items := make([]models.RecordActivityInput, 0, len(req.Activities))
	for i, raw := range req.Activities {
		var in models.RecordActivityInput
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Warn("skipping malformed batch item %d: %v", i, err)
			continue
		}
		normalizeActivity(&in)
		if err := validateStruct(&in); err != nil {
			log.Warn("skipping invalid batch item %d: %v", i, err)
			continue
		}
		items = append(items, in)
	}

	res, err := s.Activity.RecordBatch(r.Context(), user.ID, items)
	if err != nil {
		handleError(w, r, err)
		return
	}
	for _, d := range res.Days {
		s.scheduleAggregation(r.Context(), d)
	}
	writeJSON(w, r, http.StatusOK, res)
}

// scheduleAggregation defers a day's aggregation to the worker pool, running it
// inline when the queue cannot take it.
func (s *Server) scheduleAggregation(ctx context.Context, d models.UserDay) {
	log := logger.FromContext(ctx)
	if s.JobQueue != nil {
		err := s.JobQueue.EnqueueAggregation(d.UserID, d.Day)
		if err == nil {
			return
		}
		log.Warn("aggregation queue rejected %s/%s, running inline: %v", d.UserID, d.Day, err)
	}
	if _, err := s.Activity.AggregateDay(ctx, d.UserID, d.Day); err != nil {
		// the periodic sweep picks the day up again
		log.Error("inline aggregation failed for %s/%s: %v", d.UserID, d.Day, err)
	}
}

func (s *Server) handleActivityStatus(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status, err := s.Activity.Status(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleUserLevel(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	level, err := s.Levels.Level(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, level)
}
