package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/campushub/campusevents/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, password_hash, role,
	is_verified, verification_code, verification_code_expires_at,
	is_faculty_verified, verified_by, can_add_event,
	created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	op := "users.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			u.ID, u.Email, u.Name, u.PasswordHash, u.Role,
			u.IsVerified, u.VerificationCode, u.VerificationCodeExpiresAt,
			u.IsFacultyVerified, u.VerifiedBy, u.CanAddEvent,
			u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIdentifier resolves a sign-in identifier that may be an email or a
// display name. Names are not unique; ordering by created_at makes the
// first-match pick deterministic (oldest account wins).
func (r *UsersRepo) GetByIdentifier(ctx context.Context, identifier string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_identifier",
		`SELECT `+userColumns+` FROM users
		 WHERE email = $1 OR name = $1
		 ORDER BY created_at ASC
		 LIMIT 1`, identifier)
}

// ClaimVerificationCode redeems a pending code in one statement: the row
// update only matches an unexpired code, and clearing both code columns in
// the same write makes redemption one-shot even under concurrent attempts.
func (r *UsersRepo) ClaimVerificationCode(ctx context.Context, code string, now time.Time) (user.User, error) {
	var u user.User
	op := "users.claim_verification_code"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE users
			 SET is_verified = TRUE,
			     verification_code = NULL,
			     verification_code_expires_at = NULL,
			     updated_at = NOW()
			 WHERE verification_code = $1
			   AND verification_code_expires_at > $2
			 RETURNING `+userColumns,
			code, now,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrCodeInvalid
		}
		return user.User{}, err
	}

	return u, nil
}

// SetFacultyVerification grants faculty verification: the three fields move
// together in a single write. Safe to repeat.
func (r *UsersRepo) SetFacultyVerification(ctx context.Context, studentID, facultyID string) (user.User, error) {
	var u user.User
	op := "users.set_faculty_verification"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE users
			 SET is_faculty_verified = TRUE,
			     verified_by = $2,
			     can_add_event = TRUE,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns,
			studentID, facultyID,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// ClearFacultyVerification is the symmetric inverse. Also idempotent.
func (r *UsersRepo) ClearFacultyVerification(ctx context.Context, studentID string) (user.User, error) {
	var u user.User
	op := "users.clear_faculty_verification"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE users
			 SET is_faculty_verified = FALSE,
			     verified_by = NULL,
			     can_add_event = FALSE,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns,
			studentID,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) ListVerifiedStudents(ctx context.Context) ([]user.VerifiedStudent, error) {
	op := "users.list_verified_students"

	var rows pgx.Rows

	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT s.id, s.email, s.name, s.role,
			        s.is_verified, s.is_faculty_verified, s.verified_by, s.can_add_event,
			        f.name, f.email
			 FROM users s
			 LEFT JOIN users f ON f.id = s.verified_by
			 WHERE s.role = 'student' AND s.is_faculty_verified = TRUE
			 ORDER BY s.name ASC, s.id ASC`,
		)
		return qerr
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]user.VerifiedStudent, 0)

	for rows.Next() {
		var s user.VerifiedStudent

		err = rows.Scan(
			&s.ID, &s.Email, &s.Name, &s.Role,
			&s.IsVerified, &s.IsFacultyVerified, &s.VerifiedBy, &s.CanAddEvent,
			&s.VerifiedByName, &s.VerifiedByEmail,
		)

		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (r *UsersRepo) FindStudentByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.find_student_by_email",
		`SELECT `+userColumns+` FROM users
		 WHERE email = $1 AND role = 'student'`, email)
}

func (r *UsersRepo) FindStudentByIdentifier(ctx context.Context, identifier string) (user.User, error) {
	return r.getOne(ctx, "users.find_student_by_identifier",
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'student' AND (email = $1 OR name = $1)
		 ORDER BY created_at ASC
		 LIMIT 1`, identifier)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func scanTargets(u *user.User) []any {
	return []any{
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.VerificationCode, &u.VerificationCodeExpiresAt,
		&u.IsFacultyVerified, &u.VerifiedBy, &u.CanAddEvent,
		&u.CreatedAt, &u.UpdatedAt,
	}
}
