package sanitize

import (
	"errors"
	"testing"

	"github.com/mohammed-shakir/route-planner/internal/core/model"
)

func pt(lat, lng float64) model.GeoPoint { return model.GeoPoint{Lat: lat, Lng: lng} }

func TestCollapse_RemovesConsecutiveDuplicates(t *testing.T) {
	in := []model.GeoPoint{pt(1, 1), pt(1, 1), pt(2, 2), pt(2, 2), pt(2, 2), pt(1, 1)}
	got := Collapse(in)
	want := []model.GeoPoint{pt(1, 1), pt(2, 2), pt(1, 1)}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSanitize_NoConsecutiveEqualAndOrderPreserved(t *testing.T) {
	inputs := [][]model.GeoPoint{
		{pt(0, 0), pt(1, 1)},
		{pt(0, 0), pt(0, 0), pt(1, 1), pt(2, 2), pt(2, 2)},
		{pt(5, 5), pt(4, 4), pt(4, 4), pt(5, 5), pt(6, 6)},
	}
	s := New(0)
	for _, in := range inputs {
		out, err := s.Sanitize(in)
		if err != nil {
			t.Fatalf("Sanitize(%v): %v", in, err)
		}
		for i := 1; i < len(out); i++ {
			if out[i] == out[i-1] {
				t.Fatalf("consecutive duplicates in %v", out)
			}
		}
		// out must be a subsequence of in
		j := 0
		for _, p := range in {
			if j < len(out) && p == out[j] {
				j++
			}
		}
		if j != len(out) {
			t.Fatalf("order not preserved: in=%v out=%v", in, out)
		}
	}
}

func TestSanitize_RejectsDegenerate(t *testing.T) {
	s := New(DefaultTolerance)
	cases := map[string][]model.GeoPoint{
		"empty":          nil,
		"single":         {pt(1, 1)},
		"all equal":      {pt(1, 1), pt(1, 1), pt(1, 1)},
		"two within tol": {pt(1, 1), pt(1.00005, 1.00005)},
	}
	for name, in := range cases {
		if _, err := s.Sanitize(in); !errors.Is(err, model.ErrInsufficientWaypoints) {
			t.Fatalf("%s: err=%v want ErrInsufficientWaypoints", name, err)
		}
	}
}

func TestSanitize_ThreeNearPointsAccepted(t *testing.T) {
	// tolerance only applies to the two-point case
	s := New(DefaultTolerance)
	out, err := s.Sanitize([]model.GeoPoint{pt(1, 1), pt(1.00001, 1), pt(1, 1)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len=%d want 3", len(out))
	}
}
