package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campushub/campusevents/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindTarget struct {
	Email string `json:"email" binding:"required,email"`
	Age   int    `json:"age" binding:"omitempty,min=1"`
}

func bindProbe() (*gin.Engine, *bool) {
	ok := false

	r := gin.New()
	r.POST("/probe", func(c *gin.Context) {
		var req bindTarget
		if !handlers.BindJSON(c, &req) {
			return
		}
		ok = true
		c.Status(http.StatusNoContent)
	})

	return r, &ok
}

type bindErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Details struct {
			Fields []handlers.FieldError `json:"fields"`
			JSON   string                `json:"json"`
		} `json:"details"`
	} `json:"error"`
}

func TestBindJSONValidationDetails(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantOK    bool
		wantField string
		wantRule  string
		wantJSON  string
	}{
		{
			name:   "valid",
			body:   `{"email":"a@b.c","age":3}`,
			wantOK: true,
		},
		{
			name:      "missing_required",
			body:      `{}`,
			wantField: "email",
			wantRule:  "required",
		},
		{
			name:      "bad_email",
			body:      `{"email":"nope"}`,
			wantField: "email",
			wantRule:  "email",
		},
		{
			name:     "syntax_error",
			body:     `{nope`,
			wantJSON: "invalid_json_syntax",
		},
		{
			name:     "type_mismatch",
			body:     `{"email":"a@b.c","age":"three"}`,
			wantJSON: "invalid_json_type",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r, ok := bindProbe()

			req := httptest.NewRequest(http.MethodPost, "/probe", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if *ok != tt.wantOK {
				t.Fatalf("handler reached = %v, want %v, body=%s", *ok, tt.wantOK, w.Body.String())
			}

			if tt.wantOK {
				return
			}

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400", w.Code)
			}

			var body bindErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v, body=%s", err, w.Body.String())
			}

			if body.Error.Code != "invalid_request" {
				t.Fatalf("error code = %q", body.Error.Code)
			}

			if tt.wantJSON != "" {
				if body.Error.Details.JSON != tt.wantJSON {
					t.Fatalf("details.json = %q, want %q", body.Error.Details.JSON, tt.wantJSON)
				}
				return
			}

			found := false
			for _, f := range body.Error.Details.Fields {
				if f.Field == tt.wantField && f.Rule == tt.wantRule {
					found = true
				}
			}
			if !found {
				t.Fatalf("field %s/%s not reported: %s", tt.wantField, tt.wantRule, w.Body.String())
			}
		})
	}
}
