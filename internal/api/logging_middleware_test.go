package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"yenfolio/pkg/yenfolio"
)

func setupRouterWithLogger(t *testing.T, logger *slog.Logger) http.Handler {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	core, err := yenfolio.OpenWithOptions(yenfolio.Options{DBPath: dbPath, Logger: logger})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })

	return NewRouter(core, logger)
}

func TestRouterLogsRequestCompleted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := setupRouterWithLogger(t, logger)

	rr := doRequest(router, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		"http request completed",
		"method=GET",
		"path=/api/health",
		"status=200",
		"request_id=",
		"duration_ms=",
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %q in request log, got %q", want, logs)
		}
	}
}

func TestRouterLogsWarnForBadRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := setupRouterWithLogger(t, logger)

	rr := doRequest(router, http.MethodPut, "/api/annual-performance/abc", yearUpdatePayload{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, "level=WARN") {
		t.Fatalf("expected warn level log, got %q", logs)
	}
	if !strings.Contains(logs, "status=400") {
		t.Fatalf("expected status=400 in log, got %q", logs)
	}
}

func TestRouterRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// A nil core makes every data handler panic; the middleware must turn
	// that into a structured 500.
	router := NewRouter(nil, logger)
	rr := doRequest(router, http.MethodGet, "/api/holdings", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `{"error":"internal server error"}`) {
		t.Fatalf("expected structured error response, got %q", rr.Body.String())
	}

	logs := buf.String()
	if !strings.Contains(logs, "panic recovered") {
		t.Fatalf("expected panic recovery log, got %q", logs)
	}
	if !strings.Contains(logs, "level=ERROR") {
		t.Fatalf("expected error level log, got %q", logs)
	}
}
