package keys

import (
	"regexp"
	"strings"
	"testing"
)

var allowed = regexp.MustCompile(`^[a-z0-9:_=,\-]+$`)

func TestGeocode_Deterministic(t *testing.T) {
	k1 := Geocode("de", "Alexanderplatz 1, Berlin")
	k2 := Geocode("de", "Alexanderplatz 1, Berlin")
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if !strings.HasPrefix(k1, "geocode:v1:de:") {
		t.Fatalf("unexpected prefix: %s", k1)
	}
}

func TestGeocode_NormalizesSpacingAndCase(t *testing.T) {
	k1 := Geocode("de", "  alexanderplatz   1 , BERLIN ")
	k2 := Geocode("DE", "Alexanderplatz 1, Berlin")
	if k1 != k2 {
		t.Fatalf("normalized keys differ:\n k1=%s\n k2=%s", k1, k2)
	}
	if !allowed.MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestGeocode_CountryScopeIsPartOfKey(t *testing.T) {
	if Geocode("de", "Frankfurt") == Geocode("us", "Frankfurt") {
		t.Fatal("country scope must change the key")
	}
}

func TestGeocode_NonASCIISanitizedButHashDistinct(t *testing.T) {
	k1 := Geocode("de", "Straße 1, Köln")
	k2 := Geocode("de", "Strasse 1, Koln")
	if k1 == k2 {
		t.Fatal("different addresses must not collide")
	}
	if !allowed.MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestGeocode_LongAddressTruncated(t *testing.T) {
	long := strings.Repeat("a", 500)
	k := Geocode("de", long)
	if len(k) > 160 {
		t.Fatalf("key too long: %d", len(k))
	}
	if !strings.HasSuffix(k, ":h="+k[len(k)-16:]) {
		t.Fatalf("missing hash suffix: %s", k)
	}
}
