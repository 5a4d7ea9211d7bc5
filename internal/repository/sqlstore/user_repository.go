package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

type userRepository struct {
	db *db.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(d *db.DB) repository.UserRepository {
	return &userRepository{db: d}
}

func (r *userRepository) Ensure(ctx context.Context, u models.User, now time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("ensuring user: id=%s, role=%s", u.ID, u.Role)

	if u.Role == "" {
		u.Role = models.RoleUser
	}
	_, err := exec(ctx, r.db, r.db.Builder().
		Insert("users").
		Columns("id", "role", "created_at").
		Values(u.ID, u.Role, now.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET role = excluded.role"))
	if err != nil {
		log.Error("failed to ensure user: %v", err)
	}
	return err
}

func (r *userRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := get(ctx, r.db, &u, r.db.Builder().
		Select("id", "role", "created_at").
		From("users").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	return &u, nil
}
