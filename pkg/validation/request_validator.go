package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	MaxPageLimit = 100
)

// ValidateCoordinates checks latitude and longitude ranges. NaN and
// infinities are rejected; NaN would otherwise slip past every comparison.
func ValidateCoordinates(lat, lon float64) error {
	if !isFinite(lat) || !isFinite(lon) {
		return apperrors.NewValidationError("coordinates must be finite numbers", nil).
			WithDetails(strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64))
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return apperrors.NewValidationError("latitude must be within -90..90", nil).
			WithDetails(strconv.FormatFloat(lat, 'f', -1, 64))
	}
	if lon < MinLongitude || lon > MaxLongitude {
		return apperrors.NewValidationError("longitude must be within -180..180", nil).
			WithDetails(strconv.FormatFloat(lon, 'f', -1, 64))
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseCoordinates parses form values into a validated coordinate pair.
func ParseCoordinates(latRaw, lonRaw string) (float64, float64, error) {
	lat, err := parseFloat("latitude", latRaw)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseFloat("longitude", lonRaw)
	if err != nil {
		return 0, 0, err
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// ParseLimit parses an optional limit in 1..max.
func ParseLimit(raw string, defaultLimit, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("limit must be an integer", err)
	}
	if limit < 1 || limit > max {
		return 0, apperrors.NewValidationError(fmt.Sprintf("limit must be within 1..%d", max), nil)
	}
	return limit, nil
}

// ParsePaging parses limit (1..MaxPageLimit) and offset (>= 0).
func ParsePaging(limitRaw, offsetRaw string, defaultLimit int) (int, int, error) {
	limit, err := ParseLimit(limitRaw, defaultLimit, MaxPageLimit)
	if err != nil {
		return 0, 0, err
	}

	offsetRaw = strings.TrimSpace(offsetRaw)
	if offsetRaw == "" {
		return limit, 0, nil
	}
	offset, err := strconv.Atoi(offsetRaw)
	if err != nil {
		return 0, 0, apperrors.NewValidationError("offset must be an integer", err)
	}
	if offset < 0 {
		return 0, 0, apperrors.NewValidationError("offset must be >= 0", nil)
	}
	return limit, offset, nil
}

func parseFloat(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperrors.NewValidationError(name+" is required", nil)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name+" must be a number", err)
	}
	return v, nil
}
