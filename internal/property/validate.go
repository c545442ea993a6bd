package property

import (
	"math"
	"strconv"
	"strings"

	"github.com/keyhaven/backend/internal/models"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 5000

	// MaxImageSize bounds a single uploaded image.
	MaxImageSize = 5 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

func requireText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", invalidf("%s is required", field)
	}
	if len(v) > max {
		return "", invalidf("%s cannot exceed %d characters", field, max)
	}
	return v, nil
}

func parsePrice(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, invalidf("Price must be a positive number")
	}
	return v, nil
}

// parseSquareFootage accepts an empty value (defaults to 0) but rejects any
// supplied value that is not strictly positive.
func parseSquareFootage(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, invalidf("Square footage must be a positive number")
	}
	return v, nil
}

func parseCount(field, raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, invalidf("%s must be a non-negative number", field)
	}
	return v, nil
}

func parsePropertyType(raw string) (models.PropertyType, error) {
	t := models.PropertyType(strings.TrimSpace(raw))
	if !t.Valid() {
		return "", invalidf("Invalid property type %q", string(t))
	}
	return t, nil
}

func parsePropertyStatus(raw string) (models.PropertyStatus, error) {
	s := models.PropertyStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", invalidf("Invalid property status %q", string(s))
	}
	return s, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// validateImages checks an upload batch against the per-listing cap, given
// how many image slots the listing already occupies.
func validateImages(files []UploadFile, used int) error {
	if used+len(files) > models.MaxImagesPerProperty {
		return invalidf("A listing can have at most %d images", models.MaxImagesPerProperty)
	}
	for _, f := range files {
		if !allowedImageTypes[strings.ToLower(f.ContentType)] {
			return invalidf("Only image files (jpeg, png, jpg, webp) are allowed")
		}
		if f.Size > MaxImageSize {
			return invalidf("Image %s exceeds the 5MB size limit", f.Name)
		}
	}
	return nil
}
