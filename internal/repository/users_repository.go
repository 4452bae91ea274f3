package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labelstack/hub/internal/huberrors"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/pkg/database"
)

// UsersRepository handles data access for annotator accounts.
type UsersRepository struct {
	db database.Querier
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db database.Querier) *UsersRepository {
	return &UsersRepository{db: db}
}

// GetByID retrieves a single user.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := database.QuerierFrom(ctx, r.db)

	var u models.User

	err := q.QueryRow(ctx, `
		SELECT id, username, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huberrors.NewNotFoundError("user", fmt.Sprintf("user with id %s not found", id))
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// ListByIDs returns the users matching the given ids. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (r *UsersRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := database.QuerierFrom(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, username, created_at, updated_at
		FROM users
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(&u.ID, &u.Username, &u.CreatedAt, &u.UpdatedAt)

		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	return users, nil
}
