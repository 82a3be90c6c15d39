package db

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureFacultyUser creates the bootstrap faculty account so somebody can
// verify the first students. No-op when seed config is absent or the account
// already exists.
func EnsureFacultyUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.FacultyEmail == "" || cfg.FacultyPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.FacultyEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.FacultyPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'faculty', TRUE, $5, $6)
		`,
		uuid.NewString(), cfg.FacultyEmail, cfg.FacultyName, hash, now, now,
	)

	return err
}
