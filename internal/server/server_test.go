package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pitwall/stewarding/internal/pipeline"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) RunBatch(ctx context.Context, seriesID, year string, mode pipeline.Mode) (*pipeline.BatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, seriesID+"/"+year+"/"+string(mode))
	return &pipeline.BatchReport{}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestServer(runner Runner, token string) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(runner, token, logger).Handler()
}

func post(t *testing.T, handler http.Handler, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIngest_Accepted(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestServer(runner, "secret")

	rec := post(t, handler, `{"series":"f1","year":"2024","mode":"all"}`, "secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	// The batch runs in the background
	deadline := time.After(time.Second)
	for runner.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("batch never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestIngest_DefaultModeNewest(t *testing.T) {
	runner := &fakeRunner{}
	handler := newTestServer(runner, "")

	rec := post(t, handler, `{"series":"f1","year":"2024"}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"mode":"newest"`) {
		t.Errorf("body = %s, want newest mode", rec.Body.String())
	}
}

func TestIngest_AuthRequired(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, "secret")

	if rec := post(t, handler, `{"series":"f1","year":"2024"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}
	if rec := post(t, handler, `{"series":"f1","year":"2024"}`, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}
}

func TestIngest_Validation(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, "")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"unsupported series", `{"series":"nascar","year":"2024"}`, http.StatusUnprocessableEntity},
		{"bad year", `{"series":"f1","year":"24"}`, http.StatusUnprocessableEntity},
		{"bad mode", `{"series":"f1","year":"2024","mode":"sideways"}`, http.StatusUnprocessableEntity},
		{"invalid json", `{"series":`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := post(t, handler, tc.body, ""); rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestIngest_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/ingest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, "secret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
