package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func capture(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := fn(c); err != nil {
		t.Fatalf("respond helper returned error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	return rec, env
}

func TestOK(t *testing.T) {
	rec, env := capture(t, func(c echo.Context) error {
		return OK(c, map[string]int{"count": 3})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !env.Success {
		t.Fatal("expected success=true")
	}
	if env.Data == nil {
		t.Fatal("expected data payload")
	}
}

func TestCreated(t *testing.T) {
	rec, env := capture(t, func(c echo.Context) error {
		return Created(c, "id-1")
	})
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("status = %d success = %v", rec.Code, env.Success)
	}
}

func TestNoContent_KeepsEnvelope(t *testing.T) {
	rec, env := capture(t, func(c echo.Context) error {
		return NoContent(c, "cart cleared")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !env.Success || env.Message != "cart cleared" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Data != nil {
		t.Fatal("expected no data")
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(c echo.Context) error
		code int
	}{
		{"error", func(c echo.Context) error { return Error(c, http.StatusTeapot, "nope") }, http.StatusTeapot},
		{"bad request", func(c echo.Context) error { return BadRequest(c, "nope") }, http.StatusBadRequest},
		{"not found", func(c echo.Context) error { return NotFound(c, "nope") }, http.StatusNotFound},
		{"conflict", func(c echo.Context) error { return Conflict(c, "nope") }, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := capture(t, tt.fn)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if env.Success {
				t.Fatal("expected success=false")
			}
			if env.Message != "nope" {
				t.Fatalf("message = %q", env.Message)
			}
		})
	}
}
