package model

import (
	"math"
	"testing"
)

func TestPointOrderConversions(t *testing.T) {
	g := GeoPoint{Lat: 52.52, Lng: 13.405}
	s := g.Service()
	if s.Lng != 13.405 || s.Lat != 52.52 {
		t.Fatalf("service=%+v", s)
	}
	if s.Pair() != [2]float64{13.405, 52.52} {
		t.Fatalf("service pair=%v", s.Pair())
	}
	if g.Pair() != [2]float64{52.52, 13.405} {
		t.Fatalf("geo pair=%v", g.Pair())
	}
	if s.Geo() != g {
		t.Fatalf("round trip got %+v want %+v", s.Geo(), g)
	}

	path := GeoPath(ServicePath([]GeoPoint{g, {Lat: 48.86, Lng: 2.35}}))
	if len(path) != 2 || path[0] != g || path[1] != (GeoPoint{Lat: 48.86, Lng: 2.35}) {
		t.Fatalf("path=%v", path)
	}
}

func TestGeoPoint_Finite(t *testing.T) {
	cases := []struct {
		p    GeoPoint
		want bool
	}{
		{GeoPoint{Lat: 1, Lng: 2}, true},
		{GeoPoint{Lat: math.NaN(), Lng: 2}, false},
		{GeoPoint{Lat: 1, Lng: math.Inf(1)}, false},
	}
	for _, c := range cases {
		if got := c.p.Finite(); got != c.want {
			t.Fatalf("Finite(%v)=%v want %v", c.p, got, c.want)
		}
	}
	if (GeoPoint{Lat: 91, Lng: 0}).Valid() {
		t.Fatal("lat 91 should be invalid")
	}
}

func TestWaypoint_Resolved(t *testing.T) {
	w := Waypoint{ID: "a", Address: "Berlin"}
	if w.Resolved() {
		t.Fatal("waypoint without coords reported resolved")
	}
	w2 := w.WithCoord(GeoPoint{Lat: 52.5, Lng: 13.4})
	if !w2.Resolved() || w.Resolved() {
		t.Fatal("WithCoord must return a resolved copy and leave the original unchanged")
	}
	nan := w.WithCoord(GeoPoint{Lat: math.NaN(), Lng: 1})
	if nan.Resolved() {
		t.Fatal("NaN coordinates must not count as resolved")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"car": ModeCar, "": ModeCar, " Walking ": ModeWalking} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("bike"); err == nil {
		t.Fatal("expected error for bike")
	}
}

func TestOptions_FastestDefault(t *testing.T) {
	if !(Options{}).Fastest() {
		t.Fatal("unspecified preference must default to fastest")
	}
	f := false
	if (Options{PreferFastest: &f}).Fastest() {
		t.Fatal("explicit false must select shortest")
	}
}
