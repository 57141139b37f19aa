package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func runErrorHandler(t *testing.T, err error) (int, envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/movies/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	HTTPErrorHandler(err, c)

	var env envelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &env); decodeErr != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), decodeErr)
	}
	return rec.Code, env
}

func TestHTTPErrorHandler(t *testing.T) {
	t.Run("APIError maps status and code", func(t *testing.T) {
		status, env := runErrorHandler(t, NotFound("Movie not found"))
		if status != http.StatusNotFound {
			t.Errorf("want 404, got %d", status)
		}
		if env.Success || env.Error == nil {
			t.Fatalf("want error envelope, got %+v", env)
		}
		if env.Error.Code != CodeNotFound || env.Error.Message != "Movie not found" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("validation details are carried through", func(t *testing.T) {
		status, env := runErrorHandler(t, Validation("Validation failed", map[string]string{"email": "must be a valid email address"}))
		if status != http.StatusBadRequest {
			t.Errorf("want 400, got %d", status)
		}
		if env.Error == nil || env.Error.Details["email"] == "" {
			t.Errorf("details missing: %+v", env.Error)
		}
	})

	t.Run("echo HTTPError is translated", func(t *testing.T) {
		status, env := runErrorHandler(t, echo.ErrNotFound)
		if status != http.StatusNotFound {
			t.Errorf("want 404, got %d", status)
		}
		if env.Error == nil || env.Error.Code != CodeNotFound {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("unknown errors never leak internals", func(t *testing.T) {
		status, env := runErrorHandler(t, errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))
		if status != http.StatusInternalServerError {
			t.Errorf("want 500, got %d", status)
		}
		if env.Error == nil || env.Error.Code != CodeInternal {
			t.Fatalf("unexpected error %+v", env.Error)
		}
		if env.Error.Message != "Internal server error" {
			t.Errorf("internal details leaked: %q", env.Error.Message)
		}
	})
}

func TestSuccessEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Success(c, http.StatusCreated, map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("write success: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("want 201, got %d", rec.Code)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Error != nil {
		t.Errorf("want success envelope, got %+v", env)
	}
}
