package directions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

const berlinParisBody = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [[13.405,52.52],[8.68,50.11],[2.35,48.86]]},
    "properties": {
      "summary": {"distance": 1050.0, "duration": 36000},
      "segments": [{"steps": [
        {"instruction": "Head west on Unter den Linden"},
        {"instruction": ""},
        {"instruction": "Arrive at Paris"}
      ]}]
    }
  }]
}`

type upstreamRecorder struct {
	mu         sync.Mutex
	lastPath   string
	lastHeader http.Header
	lastBody   []byte
	status     int
	body       string
	delay      time.Duration
}

func (u *upstreamRecorder) handler(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	u.lastPath = r.URL.Path
	u.lastHeader = r.Header.Clone()
	u.lastBody = b
	status, body, delay := u.status, u.body, u.delay
	u.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (u *upstreamRecorder) sentBody(t *testing.T) map[string]any {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	var m map[string]any
	if err := json.Unmarshal(u.lastBody, &m); err != nil {
		t.Fatalf("request body not json: %v (%s)", err, u.lastBody)
	}
	return m
}

func newORS(t *testing.T, up *upstreamRecorder, timeout time.Duration) *ORS {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	t.Cleanup(srv.Close)
	c, err := NewORS(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.Client(), Config{
		BaseURL: srv.URL + "/",
		APIKey:  "test-key",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewORS: %v", err)
	}
	return c
}

func berlinParis() []model.ServicePoint {
	return model.ServicePath([]model.GeoPoint{{Lat: 52.52, Lng: 13.405}, {Lat: 48.86, Lng: 2.35}})
}

func TestORS_RequestShape_Driving(t *testing.T) {
	up := &upstreamRecorder{body: berlinParisBody}
	c := newORS(t, up, time.Second)

	_, err := c.Route(context.Background(), Request{
		Points:  berlinParis(),
		Mode:    model.ModeCar,
		Options: model.Options{AvoidTolls: true, AvoidHighways: true},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	up.mu.Lock()
	path, hdr := up.lastPath, up.lastHeader
	up.mu.Unlock()
	if path != "/v2/directions/driving-car/geojson" {
		t.Fatalf("path=%q", path)
	}
	if hdr.Get("Authorization") != "test-key" {
		t.Fatalf("authorization=%q", hdr.Get("Authorization"))
	}
	if hdr.Get("Content-Type") != "application/json" {
		t.Fatalf("content-type=%q", hdr.Get("Content-Type"))
	}

	body := up.sentBody(t)
	coords := body["coordinates"].([]any)
	first := coords[0].([]any)
	if first[0].(float64) != 13.405 || first[1].(float64) != 52.52 {
		t.Fatalf("coordinates must be [lon,lat], got %v", first)
	}
	if body["preference"] != "fastest" {
		t.Fatalf("preference=%v", body["preference"])
	}
	if body["instructions"] != true || body["units"] != "km" {
		t.Fatalf("instructions/units=%v/%v", body["instructions"], body["units"])
	}
	opts, ok := body["options"].(map[string]any)
	if !ok {
		t.Fatalf("options missing: %v", body)
	}
	avoid := opts["avoid_features"].([]any)
	if len(avoid) != 2 || avoid[0] != "tollways" || avoid[1] != "highways" {
		t.Fatalf("avoid_features=%v", avoid)
	}
}

func TestORS_RequestShape_WalkingOmitsOptions(t *testing.T) {
	up := &upstreamRecorder{body: berlinParisBody}
	c := newORS(t, up, time.Second)
	no := false

	_, err := c.Route(context.Background(), Request{
		Points:  berlinParis(),
		Mode:    model.ModeWalking,
		Options: model.Options{AvoidTolls: true, PreferFastest: &no},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	up.mu.Lock()
	path := up.lastPath
	up.mu.Unlock()
	if path != "/v2/directions/foot-walking/geojson" {
		t.Fatalf("path=%q", path)
	}
	body := up.sentBody(t)
	if _, ok := body["options"]; ok {
		t.Fatalf("walking must not send options: %v", body["options"])
	}
	if body["preference"] != "shortest" {
		t.Fatalf("preference=%v", body["preference"])
	}
}

func TestORS_NoAvoidFeaturesOmitsOptions(t *testing.T) {
	up := &upstreamRecorder{body: berlinParisBody}
	c := newORS(t, up, time.Second)
	if _, err := c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if _, ok := up.sentBody(t)["options"]; ok {
		t.Fatal("options must be omitted when nothing is avoided")
	}
}

func TestORS_ParsesFeature(t *testing.T) {
	up := &upstreamRecorder{body: berlinParisBody}
	c := newORS(t, up, time.Second)

	f, err := c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(f.Coordinates) != 3 || f.Coordinates[0] != (model.ServicePoint{Lng: 13.405, Lat: 52.52}) {
		t.Fatalf("coordinates=%v", f.Coordinates)
	}
	if f.SummaryDuration != 36000 {
		t.Fatalf("duration=%v", f.SummaryDuration)
	}
	if len(f.Instructions) != 2 || f.Instructions[1] != "Arrive at Paris" {
		t.Fatalf("instructions=%q", f.Instructions)
	}
}

func TestORS_SkipsFeaturesWithoutLine(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[13.405,52.52]},"properties":{"summary":{"duration":1}}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[13.405,52.52],[2.3522,48.8566]]},
		 "properties":{"summary":{"duration":36000,"distance":1050},"segments":[{"steps":[{"instruction":"Head west"}]}]}}
	]}`
	up := &upstreamRecorder{body: body}
	c := newORS(t, up, time.Second)

	f, err := c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(f.Coordinates) != 2 || f.Coordinates[1] != (model.ServicePoint{Lng: 2.3522, Lat: 48.8566}) {
		t.Fatalf("coordinates=%v", f.Coordinates)
	}
	if f.SummaryDuration != 36000 || len(f.Instructions) != 1 || f.Instructions[0] != "Head west" {
		t.Fatalf("feature=%+v", f)
	}
}

func TestORS_Failures(t *testing.T) {
	cases := []struct {
		name    string
		up      *upstreamRecorder
		kind    FailureKind
		status  int
		message string
		target  error
	}{
		{
			name:    "500 with nested message",
			up:      &upstreamRecorder{status: 500, body: `{"error":{"code":2099,"message":"Unknown internal error"}}`},
			kind:    ServiceUnavailable,
			status:  500,
			message: "Unknown internal error",
			target:  model.ErrDirectionsUnavailable,
		},
		{
			name:    "403 with string error",
			up:      &upstreamRecorder{status: 403, body: `{"error":"Access to this API has been disallowed"}`},
			kind:    ServiceUnavailable,
			status:  403,
			message: "Access to this API has been disallowed",
			target:  model.ErrDirectionsUnavailable,
		},
		{
			name:    "502 without body",
			up:      &upstreamRecorder{status: 502},
			kind:    ServiceUnavailable,
			status:  502,
			message: "Bad Gateway",
			target:  model.ErrDirectionsUnavailable,
		},
		{
			name:   "empty feature list",
			up:     &upstreamRecorder{body: `{"type":"FeatureCollection","features":[]}`},
			kind:   NoRouteFound,
			status: 200,
			target: model.ErrNoRouteFound,
		},
		{
			name:   "single point geometry",
			up:     &upstreamRecorder{body: `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[13.4,52.5]]},"properties":{}}]}`},
			kind:   NoRouteFound,
			status: 200,
			target: model.ErrNoRouteFound,
		},
		{
			name:   "malformed json",
			up:     &upstreamRecorder{body: `{"type":"FeatureCollection","features":[`},
			kind:   ServiceUnavailable,
			status: 200,
			target: model.ErrDirectionsUnavailable,
		},
		{
			name:   "empty body",
			up:     &upstreamRecorder{body: ``},
			kind:   ServiceUnavailable,
			status: 200,
			target: model.ErrDirectionsUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newORS(t, tc.up, time.Second)
			_, err := c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar})
			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("want *Failure, got %T %v", err, err)
			}
			if f.Kind != tc.kind || f.Status != tc.status {
				t.Fatalf("kind=%v status=%d want %v/%d", f.Kind, f.Status, tc.kind, tc.status)
			}
			if tc.message != "" && f.Message != tc.message {
				t.Fatalf("message=%q want %q", f.Message, tc.message)
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("errors.Is(%v, %v) = false", err, tc.target)
			}
		})
	}
}

func TestORS_TimeoutIsServiceUnavailable(t *testing.T) {
	up := &upstreamRecorder{body: berlinParisBody, delay: 2 * time.Second}
	c := newORS(t, up, 50*time.Millisecond)

	start := time.Now()
	_, err := c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar})
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied: %v", time.Since(start))
	}
	var f *Failure
	if !errors.As(err, &f) || f.Kind != ServiceUnavailable || f.Status != 0 {
		t.Fatalf("got %#v", err)
	}
	if f.Message == "" {
		t.Fatal("timeout must carry a message")
	}
}

func TestORS_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewORS(nil, nil, Config{BaseURL: url, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewORS: %v", err)
	}
	_, err = c.Route(context.Background(), Request{Points: berlinParis(), Mode: model.ModeCar})
	if !errors.Is(err, model.ErrDirectionsUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}

func TestNewORS_RejectsRelativeURL(t *testing.T) {
	if _, err := NewORS(nil, nil, Config{BaseURL: "/v2"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Kind: ServiceUnavailable, Status: 500, Message: "boom"}
	if got := f.Error(); got != "directions service_unavailable (status 500): boom" {
		t.Fatalf("Error()=%q", got)
	}
	if got := (&Failure{Kind: NoRouteFound}).Error(); got != "directions no_route_found" {
		t.Fatalf("Error()=%q", got)
	}
}
