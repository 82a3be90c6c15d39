package handlers

import (
	"context"
	"errors"
	"time"

	"net/http"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type StudentsStore interface {
	SetFacultyVerification(ctx context.Context, studentID, facultyID string) (user.User, error)
	ClearFacultyVerification(ctx context.Context, studentID string) (user.User, error)
	ListVerifiedStudents(ctx context.Context) ([]user.VerifiedStudent, error)
	FindStudentByEmail(ctx context.Context, email string) (user.User, error)
	FindStudentByIdentifier(ctx context.Context, identifier string) (user.User, error)
}

// StudentsHandler covers the faculty-only student administration surface.
// Role is enforced by middleware; handlers only see authenticated faculty.
type StudentsHandler struct {
	students StudentsStore
}

func NewStudentsHandler(students StudentsStore) *StudentsHandler {
	return &StudentsHandler{students: students}
}

func (h *StudentsHandler) VerifyStudent(ctx *gin.Context) {
	facultyID := actorID(ctx)

	if facultyID == "" {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.students.SetFacultyVerification(cctx, ctx.Param("id"), facultyID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Student not found.")
			return
		}

		RespondInternal(ctx, "Could not verify student")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student verified.",
		"user":    u.Public(),
	})
}

func (h *StudentsHandler) UnverifyStudent(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.students.ClearFacultyVerification(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Student not found.")
			return
		}

		RespondInternal(ctx, "Could not unverify student")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Student verification removed.",
		"user":    u.Public(),
	})
}

func (h *StudentsHandler) ListVerified(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	students, err := h.students.ListVerifiedStudents(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list verified students")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":  true,
		"students": students,
	})
}

func (h *StudentsHandler) GetByEmail(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.students.FindStudentByEmail(cctx, ctx.Param("email"))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Student not found.")
			return
		}

		RespondInternal(ctx, "Could not look up student")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}

func (h *StudentsHandler) GetByIdentifier(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.students.FindStudentByIdentifier(cctx, ctx.Param("identifier"))

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Student not found.")
			return
		}

		RespondInternal(ctx, "Could not look up student")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}
