package repository

import (
	"context"
	"strings"

	"github.com/news-aggregator-api/internal/database"
	"github.com/news-aggregator-api/internal/models"
)

// userEmailRepo is the concrete implementation of UserEmailRepository
type userEmailRepo struct {
	db *database.DB
}

// NewUserEmailRepo creates a new user email repository
func NewUserEmailRepo(db *database.DB) UserEmailRepository {
	return &userEmailRepo{db: db}
}

// Upsert records the latest device for an email
func (r *userEmailRepo) Upsert(ctx context.Context, entry *models.UserEmail) error {
	query := `
		INSERT INTO user_emails (id, user_id, email, device, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			device = EXCLUDED.device,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, strings.ToLower(entry.Email), entry.Device,
		entry.CreatedAt, entry.UpdatedAt,
	)
	return translateError(err)
}

// List returns every audit record, newest first
func (r *userEmailRepo) List(ctx context.Context) ([]*models.UserEmail, error) {
	query := `SELECT id, user_id, email, device, created_at, updated_at FROM user_emails ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.UserEmail, 0)
	for rows.Next() {
		var entry models.UserEmail
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Email, &entry.Device,
			&entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
