package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campushub/campusevents/internal/auth"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/campushub/campusevents/internal/http/handlers"
	"github.com/campushub/campusevents/internal/http/middlewares"
	"github.com/campushub/campusevents/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type studentsRig struct {
	users   *memory.UsersRepo
	router  *gin.Engine
	faculty user.User
	student user.User
	jwt     *auth.Manager
}

func newStudentsRig(t *testing.T) *studentsRig {
	t.Helper()

	users := memory.NewUsersRepo()
	jwt := auth.NewManager("test-secret", 7*24*time.Hour)

	faculty := seedUser(t, users, "prof@campus.edu", "Prof Hopper", "correct-horse", user.RoleFaculty, func(u *user.User) {
		u.IsVerified = true
	})
	student := seedUser(t, users, "stu@campus.edu", "Sam Student", "correct-horse", user.RoleStudent, func(u *user.User) {
		u.IsVerified = true
	})

	h := handlers.NewStudentsHandler(users)
	authMW := middlewares.NewAuthMiddleware(jwt, users)

	r := gin.New()
	faculty2 := r.Group("/auth")
	faculty2.Use(authMW.RequireAuth(), authMW.RequireRole(user.RoleFaculty))
	{
		faculty2.PUT("/verify-student/:id", h.VerifyStudent)
		faculty2.PUT("/unverify-student/:id", h.UnverifyStudent)
		faculty2.GET("/students", h.ListVerified)
		faculty2.GET("/student/email/:email", h.GetByEmail)
		faculty2.GET("/student/:identifier", h.GetByIdentifier)
	}

	return &studentsRig{users: users, router: r, faculty: faculty, student: student, jwt: jwt}
}

func (rig *studentsRig) do(t *testing.T, method, path string, asUser *user.User) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)

	if asUser != nil {
		token, _, err := rig.jwt.Issue(asUser.ID, asUser.Role)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, req)

	return w
}

func TestVerifyStudent(t *testing.T) {
	t.Run("sets_all_three_fields", func(t *testing.T) {
		rig := newStudentsRig(t)

		w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &rig.faculty)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		u, err := rig.users.GetByID(context.Background(), rig.student.ID)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if !u.IsFacultyVerified || !u.CanAddEvent {
			t.Fatalf("verification flags not set together: %+v", u)
		}
		if u.VerifiedBy == nil || *u.VerifiedBy != rig.faculty.ID {
			t.Fatalf("verifiedBy not linked to the acting faculty: %+v", u.VerifiedBy)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		rig := newStudentsRig(t)

		for i := 0; i < 2; i++ {
			w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &rig.faculty)
			if w.Code != http.StatusOK {
				t.Fatalf("call %d got status %d", i+1, w.Code)
			}
		}

		u, _ := rig.users.GetByID(context.Background(), rig.student.ID)
		if !u.IsFacultyVerified {
			t.Fatal("repeat verify flipped the state")
		}
	})

	t.Run("unknown_student_404", func(t *testing.T) {
		rig := newStudentsRig(t)

		w := rig.do(t, http.MethodPut, "/auth/verify-student/00000000-0000-0000-0000-000000000000", &rig.faculty)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})

	t.Run("student_token_forbidden", func(t *testing.T) {
		rig := newStudentsRig(t)

		w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &rig.student)

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want 403", w.Code)
		}

		// denied request must not mutate
		u, _ := rig.users.GetByID(context.Background(), rig.student.ID)
		if u.IsFacultyVerified {
			t.Fatal("forbidden request still mutated the student")
		}
	})

	t.Run("no_token_unauthorized", func(t *testing.T) {
		rig := newStudentsRig(t)

		w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, nil)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})

	t.Run("deleted_account_token_rejected", func(t *testing.T) {
		rig := newStudentsRig(t)

		// a valid token whose account no longer exists in the store
		ghost := user.User{ID: uuid.NewString(), Role: user.RoleFaculty}

		w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &ghost)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}

		u, _ := rig.users.GetByID(context.Background(), rig.student.ID)
		if u.IsFacultyVerified {
			t.Fatal("stale token still mutated the student")
		}
	})

	t.Run("stale_role_claim_forbidden", func(t *testing.T) {
		rig := newStudentsRig(t)

		// the token says faculty but the stored account is a student
		impostor := rig.student
		impostor.Role = user.RoleFaculty

		w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &impostor)

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want 403", w.Code)
		}

		u, _ := rig.users.GetByID(context.Background(), rig.student.ID)
		if u.IsFacultyVerified {
			t.Fatal("forged role claim still mutated the student")
		}
	})
}

func TestUnverifyStudent(t *testing.T) {
	rig := newStudentsRig(t)

	if w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &rig.faculty); w.Code != http.StatusOK {
		t.Fatalf("setup verify failed: %d", w.Code)
	}

	w := rig.do(t, http.MethodPut, "/auth/unverify-student/"+rig.student.ID, &rig.faculty)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	u, _ := rig.users.GetByID(context.Background(), rig.student.ID)
	if u.IsFacultyVerified || u.CanAddEvent || u.VerifiedBy != nil {
		t.Fatalf("unverify did not clear all three fields: %+v", u)
	}

	// idempotent on an already-clear student
	if w := rig.do(t, http.MethodPut, "/auth/unverify-student/"+rig.student.ID, &rig.faculty); w.Code != http.StatusOK {
		t.Fatalf("repeat unverify got %d", w.Code)
	}
}

func TestListVerifiedStudents(t *testing.T) {
	rig := newStudentsRig(t)

	// second student stays unverified and must not appear
	seedUser(t, rig.users, "other@campus.edu", "Other Student", "correct-horse", user.RoleStudent, nil)

	if w := rig.do(t, http.MethodPut, "/auth/verify-student/"+rig.student.ID, &rig.faculty); w.Code != http.StatusOK {
		t.Fatalf("setup verify failed: %d", w.Code)
	}

	w := rig.do(t, http.MethodGet, "/auth/students", &rig.faculty)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Students []user.VerifiedStudent `json:"students"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(body.Students) != 1 {
		t.Fatalf("got %d students, want 1: %s", len(body.Students), w.Body.String())
	}

	got := body.Students[0]
	if got.ID != rig.student.ID {
		t.Fatalf("wrong student listed: %+v", got)
	}
	if got.VerifiedByName == nil || *got.VerifiedByName != rig.faculty.Name {
		t.Fatalf("verifier name not resolved: %+v", got)
	}
	if got.VerifiedByEmail == nil || *got.VerifiedByEmail != rig.faculty.Email {
		t.Fatalf("verifier email not resolved: %+v", got)
	}
}

func TestStudentLookup(t *testing.T) {
	rig := newStudentsRig(t)

	t.Run("by_email", func(t *testing.T) {
		w := rig.do(t, http.MethodGet, "/auth/student/email/stu@campus.edu", &rig.faculty)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("by_identifier_name", func(t *testing.T) {
		w := rig.do(t, http.MethodGet, "/auth/student/Sam%20Student", &rig.faculty)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("faculty_not_returned_as_student", func(t *testing.T) {
		w := rig.do(t, http.MethodGet, "/auth/student/email/prof@campus.edu", &rig.faculty)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})

	t.Run("missing_404", func(t *testing.T) {
		w := rig.do(t, http.MethodGet, "/auth/student/email/ghost@campus.edu", &rig.faculty)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})
}
