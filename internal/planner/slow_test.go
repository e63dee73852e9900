package planner

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/directions"
)

// newSlowDirections returns a real client whose upstream never answers in time.
func newSlowDirections(t *testing.T) *directions.ORS {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the server only notices a client hang-up once the body is consumed
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c, err := directions.NewORS(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.Client(), directions.Config{
		BaseURL: srv.URL,
		APIKey:  "k",
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewORS: %v", err)
	}
	return c
}
