package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "scrutiny/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "invalid input maps to 400",
			err:     dErrors.New(dErrors.CodeInvalidInput, "invalid chain type"),
			status:  http.StatusBadRequest,
			code:    "invalid_input",
			message: "invalid chain type",
		},
		{
			name:    "unavailable maps to 503",
			err:     dErrors.Wrap(dErrors.CodeUnavailable, "record source unreachable", errors.New("dial tcp: refused")),
			status:  http.StatusServiceUnavailable,
			code:    "unavailable",
			message: "record source unreachable",
		},
		{
			name:    "partial report maps to 502",
			err:     dErrors.New(dErrors.CodePartialReport, "2 of 4 checks failed"),
			status:  http.StatusBadGateway,
			code:    "partial_report",
			message: "2 of 4 checks failed",
		},
		{
			name:    "unknown error maps to 500 with generic message",
			err:     errors.New("db failed"),
			status:  http.StatusInternalServerError,
			code:    "internal",
			message: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body["error"] != tt.code {
				t.Fatalf("expected error code %q, got %q", tt.code, body["error"])
			}
			if body["message"] != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, body["message"])
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Region string `json:"region"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"region":"north"}`))
		w := httptest.NewRecorder()

		got, ok := Decode[payload](w, r, nil)
		if !ok {
			t.Fatal("expected decode to succeed")
		}
		if got.Region != "north" {
			t.Fatalf("expected region north, got %q", got.Region)
		}
	})

	t.Run("malformed body writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"region":`))
		w := httptest.NewRecorder()

		if _, ok := Decode[payload](w, r, nil); ok {
			t.Fatal("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}
