package api

import (
	"context"

	"github.com/lingobox/lingobox/internal/auth"
	"github.com/lingobox/lingobox/internal/jobs"
	"github.com/lingobox/lingobox/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Reviews        services.ReviewService
	Cards          services.CardService
	Books          services.BookService
	Activity       services.ActivityService
	Levels         services.LevelService
	Imports        services.ImportService
	Users          services.UserService
	Auth           auth.Authenticator
	JobQueue       jobs.JobQueue
	Limiter        *RateLimiter
	Health         Pinger
	MaxImportBytes int64
}
