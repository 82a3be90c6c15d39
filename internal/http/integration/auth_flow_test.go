package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/db"
	apphttp "github.com/campushub/campusevents/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// End-to-end auth flow against a real database. Set TEST_DB_DSN to run.

func setupRouter(t *testing.T) (http.Handler, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	if err := db.Migrate(ctx, dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE jobs, events, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Config{
		Env:            "test",
		JWTSecret:      "test-secret-key",
		SessionTTLDays: 7,
	}

	return apphttp.NewRouter(logger, pool, nil, cfg), pool
}

func doRequest(router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			return c
		}
	}

	t.Fatalf("token cookie not found, body=%s", w.Body.String())

	return nil
}

func TestRegisterVerifySignInFlow(t *testing.T) {
	router, pool := setupRouter(t)

	// register
	w := doRequest(router, http.MethodPost, "/auth/register",
		`{"name":"Ada Lovelace","email":"ada@campus.edu","password":"correct-horse","role":"student"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("register got %d, body=%s", w.Code, w.Body.String())
	}

	// the code travels by email; tests read it straight from the row
	var code string

	err := pool.QueryRow(context.Background(),
		`SELECT verification_code FROM users WHERE email = $1`, "ada@campus.edu",
	).Scan(&code)

	if err != nil {
		t.Fatalf("read verification code: %v", err)
	}

	// wrong code first
	wrong := "111111"
	if wrong == code {
		wrong = "222222"
	}

	w = doRequest(router, http.MethodPost, "/auth/verifyEmail", `{"code":"`+wrong+`"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong code got %d, want 400", w.Code)
	}

	// correct code
	w = doRequest(router, http.MethodPost, "/auth/verifyEmail", `{"code":"`+code+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("verify got %d, body=%s", w.Code, w.Body.String())
	}

	// the code is one-shot
	w = doRequest(router, http.MethodPost, "/auth/verifyEmail", `{"code":"`+code+`"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("code reuse got %d, want 400", w.Code)
	}

	// sign in by display name
	w = doRequest(router, http.MethodPost, "/auth/signin",
		`{"identifier":"Ada Lovelace","password":"correct-horse"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("signin got %d, body=%s", w.Code, w.Body.String())
	}

	cookie := sessionCookie(t, w)

	// profile reflects the verification
	w = doRequest(router, http.MethodGet, "/auth/user", "", cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("get user got %d, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		User struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"isVerified"`
		} `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode profile: %v, body=%s", err, w.Body.String())
	}

	if body.User.Email != "ada@campus.edu" || !body.User.IsVerified {
		t.Fatalf("profile mismatch: %+v", body.User)
	}

	// register/signin bodies must never leak the hash
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatalf("profile leaks password material: %s", w.Body.String())
	}
}

func TestFacultyVerificationFlow(t *testing.T) {
	router, pool := setupRouter(t)

	// faculty + student accounts
	w := doRequest(router, http.MethodPost, "/auth/register",
		`{"name":"Prof Hopper","email":"prof@campus.edu","password":"correct-horse","role":"faculty"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("faculty register got %d", w.Code)
	}
	facultyCookie := sessionCookie(t, w)

	w = doRequest(router, http.MethodPost, "/auth/register",
		`{"name":"Sam Student","email":"stu@campus.edu","password":"correct-horse","role":"student"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("student register got %d", w.Code)
	}
	studentCookie := sessionCookie(t, w)

	var studentID string
	if err := pool.QueryRow(context.Background(),
		`SELECT id FROM users WHERE email = $1`, "stu@campus.edu",
	).Scan(&studentID); err != nil {
		t.Fatalf("read student id: %v", err)
	}

	// student cannot use the faculty surface
	w = doRequest(router, http.MethodPut, "/auth/verify-student/"+studentID, "", studentCookie)
	if w.Code != http.StatusForbidden {
		t.Fatalf("student verify got %d, want 403", w.Code)
	}

	// faculty verifies; repeat is idempotent
	for i := 0; i < 2; i++ {
		w = doRequest(router, http.MethodPut, "/auth/verify-student/"+studentID, "", facultyCookie)
		if w.Code != http.StatusOK {
			t.Fatalf("verify call %d got %d, body=%s", i+1, w.Code, w.Body.String())
		}
	}

	var isFacultyVerified, canAddEvent bool
	var verifiedBy *string

	if err := pool.QueryRow(context.Background(),
		`SELECT is_faculty_verified, can_add_event, verified_by FROM users WHERE id = $1`, studentID,
	).Scan(&isFacultyVerified, &canAddEvent, &verifiedBy); err != nil {
		t.Fatalf("read student row: %v", err)
	}

	if !isFacultyVerified || !canAddEvent || verifiedBy == nil {
		t.Fatalf("verification fields not set together: %v %v %v", isFacultyVerified, canAddEvent, verifiedBy)
	}

	// listed with the verifier resolved
	w = doRequest(router, http.MethodGet, "/auth/students", "", facultyCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("list got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("prof@campus.edu")) {
		t.Fatalf("verifier email not resolved: %s", w.Body.String())
	}

	// unverify clears everything
	w = doRequest(router, http.MethodPut, "/auth/unverify-student/"+studentID, "", facultyCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("unverify got %d", w.Code)
	}

	if err := pool.QueryRow(context.Background(),
		`SELECT is_faculty_verified, can_add_event, verified_by FROM users WHERE id = $1`, studentID,
	).Scan(&isFacultyVerified, &canAddEvent, &verifiedBy); err != nil {
		t.Fatalf("read student row: %v", err)
	}

	if isFacultyVerified || canAddEvent || verifiedBy != nil {
		t.Fatalf("unverify left residue: %v %v %v", isFacultyVerified, canAddEvent, verifiedBy)
	}
}
