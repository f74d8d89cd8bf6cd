package geocode

import (
	"math"
	"time"
	// Zone rules ship with the binary so slim images without /usr/share/zoneinfo work.
	_ "time/tzdata"

	"github.com/ringsaturn/tzf"
)

// ZoneFinder names the IANA time zone that contains a point. Finders built
// by github.com/ringsaturn/tzf satisfy it.
type ZoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// NewZoneFinder loads the embedded time zone boundaries. Loading takes a
// noticeable amount of memory and time; build one finder per process.
func NewZoneFinder() (ZoneFinder, error) {
	return tzf.NewDefaultFinder()
}

// ZoneAt resolves the IANA zone at (lat, lon). It returns UTC when finder is
// nil, the point is not finite, no zone covers it, or the zone is unknown to
// the tz database.
func ZoneAt(finder ZoneFinder, lat, lon float64) *time.Location {
	if finder == nil || !finite(lat) || !finite(lon) {
		return time.UTC
	}
	name := finder.GetTimezoneName(lon, lat)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalTimeISO formats now in the zone at (lat, lon) as ISO-8601.
func LocalTimeISO(now time.Time, finder ZoneFinder, lat, lon float64) string {
	return now.In(ZoneAt(finder, lat, lon)).Format(time.RFC3339)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
