package validation

import (
	"math"
	"testing"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  string
		expectErr bool
	}{
		{"tokyo", "35.6812", "139.7671", false},
		{"bounds inclusive", "-90", "180", false},
		{"latitude too high", "90.5", "0", true},
		{"longitude too low", "0", "-180.01", true},
		{"not a number", "north", "0", true},
		{"missing", "", "10", true},
		{"NaN latitude", "NaN", "0", true},
		{"NaN longitude", "0", "nan", true},
		{"Inf latitude", "Inf", "0", true},
		{"negative Inf longitude", "0", "-Inf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseCoordinates(tt.lat, tt.lon)
			if tt.expectErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateCoordinatesNonFinite(t *testing.T) {
	for _, c := range [][2]float64{{math.NaN(), 0}, {0, math.NaN()}, {math.Inf(1), 0}, {0, math.Inf(-1)}} {
		err := ValidateCoordinates(c[0], c[1])
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			t.Errorf("ValidateCoordinates(%v, %v) = %v, want validation error", c[0], c[1], err)
		}
	}
}

func TestParsePaging(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  string
		wantLimit      int
		wantOffset     int
		expectErr      bool
	}{
		{"defaults", "", "", 10, 0, false},
		{"explicit", "25", "50", 25, 50, false},
		{"max limit", "100", "0", 100, 0, false},
		{"limit zero", "0", "0", 0, 0, true},
		{"limit too big", "101", "0", 0, 0, true},
		{"negative offset", "10", "-1", 0, 0, true},
		{"non integer", "ten", "0", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := ParsePaging(tt.limit, tt.offset, 10)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
