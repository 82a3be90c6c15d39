// Package memory provides in-memory repository implementations used by
// handler tests. Error semantics mirror the postgres package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campushub/campusevents/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	users map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

// Seed inserts users directly, bypassing uniqueness checks. Test helper.
func (r *UsersRepo) Seed(users ...user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		r.users[u.ID] = u
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByIdentifier(_ context.Context, identifier string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.firstMatch(func(u user.User) bool {
		return u.Email == identifier || u.Name == identifier
	})
}

func (r *UsersRepo) ClaimVerificationCode(_ context.Context, code string, now time.Time) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.VerificationCode == nil || *u.VerificationCode != code {
			continue
		}
		if u.VerificationCodeExpiresAt == nil || !u.VerificationCodeExpiresAt.After(now) {
			break
		}

		u.IsVerified = true
		u.VerificationCode = nil
		u.VerificationCodeExpiresAt = nil
		u.UpdatedAt = now
		r.users[id] = u

		return u, nil
	}

	return user.User{}, user.ErrCodeInvalid
}

func (r *UsersRepo) SetFacultyVerification(_ context.Context, studentID, facultyID string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[studentID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.IsFacultyVerified = true
	u.VerifiedBy = &facultyID
	u.CanAddEvent = true
	u.UpdatedAt = time.Now().UTC()
	r.users[studentID] = u

	return u, nil
}

func (r *UsersRepo) ClearFacultyVerification(_ context.Context, studentID string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[studentID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.IsFacultyVerified = false
	u.VerifiedBy = nil
	u.CanAddEvent = false
	u.UpdatedAt = time.Now().UTC()
	r.users[studentID] = u

	return u, nil
}

func (r *UsersRepo) ListVerifiedStudents(_ context.Context) ([]user.VerifiedStudent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.VerifiedStudent, 0)

	for _, u := range r.users {
		if u.Role != user.RoleStudent || !u.IsFacultyVerified {
			continue
		}

		vs := user.VerifiedStudent{Public: u.Public()}

		if u.VerifiedBy != nil {
			if f, ok := r.users[*u.VerifiedBy]; ok {
				vs.VerifiedByName = &f.Name
				vs.VerifiedByEmail = &f.Email
			}
		}

		out = append(out, vs)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *UsersRepo) FindStudentByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.firstMatch(func(u user.User) bool {
		return u.Role == user.RoleStudent && u.Email == email
	})
}

func (r *UsersRepo) FindStudentByIdentifier(_ context.Context, identifier string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.firstMatch(func(u user.User) bool {
		return u.Role == user.RoleStudent && (u.Email == identifier || u.Name == identifier)
	})
}

// firstMatch scans in created_at order so identifier lookups pick the same
// row the SQL implementation does. Caller holds the lock.
func (r *UsersRepo) firstMatch(pred func(user.User) bool) (user.User, error) {
	var (
		best  user.User
		found bool
	)

	for _, u := range r.users {
		if !pred(u) {
			continue
		}
		if !found || u.CreatedAt.Before(best.CreatedAt) {
			best = u
			found = true
		}
	}

	if !found {
		return user.User{}, user.ErrNotFound
	}

	return best, nil
}
