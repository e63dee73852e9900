package reconcile

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.German)

// FormatDistance renders meters as "8,4 km" below ten kilometres and as a
// rounded, grouped "1.050 km" otherwise.
func FormatDistance(meters float64) string {
	if meters < 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		meters = 0
	}
	km := meters / 1000
	if tenths := math.Round(km*10) / 10; tenths < 10 {
		return printer.Sprintf("%.1f km", tenths)
	}
	return printer.Sprintf("%d km", int64(math.Round(km)))
}

// FormatDuration renders seconds as "{H}h {M}min" or "{M}min", minutes rounded.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int64(math.Round(seconds / 60))
	h, m := total/60, total%60
	if h > 0 {
		return printer.Sprintf("%dh %dmin", h, m)
	}
	return printer.Sprintf("%dmin", m)
}
