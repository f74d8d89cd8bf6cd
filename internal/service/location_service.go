package service

import (
	"context"
	"time"

	"github.com/anime-shed/image-discovery-go/internal/geocode"
	"github.com/anime-shed/image-discovery-go/internal/logger"
)

// UnknownLocation is stored on posts when reverse geocoding yields nothing.
const UnknownLocation = "Unknown location"

// LocationService turns coordinates into human-readable context.
type LocationService interface {
	// Lookup returns the place name for the coordinates; ok is false when
	// no name could be resolved.
	Lookup(ctx context.Context, lat, lon float64) (name string, ok bool)
	// Describe returns the place name for the coordinates, or UnknownLocation.
	Describe(ctx context.Context, lat, lon float64) string
	// LocalTime returns the current time in the IANA zone at the
	// coordinates as an ISO-8601 string, in UTC when no zone is known.
	LocalTime(lat, lon float64) string
}

type locationService struct {
	geocoder geocode.ReverseGeocoder
	zones    geocode.ZoneFinder
	now      func() time.Time
}

// NewLocationService creates a location service. geocoder may be nil, in
// which case every lookup is unknown; zones may be nil, in which case local
// times are reported in UTC.
func NewLocationService(geocoder geocode.ReverseGeocoder, zones geocode.ZoneFinder) LocationService {
	return &locationService{geocoder: geocoder, zones: zones, now: time.Now}
}

func (s *locationService) Lookup(ctx context.Context, lat, lon float64) (string, bool) {
	if s.geocoder == nil {
		return "", false
	}
	name, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		logger.WithError(err).WithField("lat", lat).WithField("lon", lon).Warn("reverse geocoding failed")
		return "", false
	}
	return name, true
}

func (s *locationService) Describe(ctx context.Context, lat, lon float64) string {
	if name, ok := s.Lookup(ctx, lat, lon); ok {
		return name
	}
	return UnknownLocation
}

func (s *locationService) LocalTime(lat, lon float64) string {
	return geocode.LocalTimeISO(s.now(), s.zones, lat, lon)
}
