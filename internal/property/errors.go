package property

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals the listing does not exist.
	ErrNotFound = errors.New("property: not found")
	// ErrInvalidID signals a malformed listing identifier.
	ErrInvalidID = errors.New("property: invalid id")
	// ErrForbidden signals the caller is neither the owning agent nor an admin.
	ErrForbidden = errors.New("property: forbidden")
	// ErrInvalidFilter signals an unrecognized filter value on the read path.
	ErrInvalidFilter = errors.New("property: invalid filter")
	// ErrAssetUpload signals the asset store rejected or lost an image batch.
	ErrAssetUpload = errors.New("property: image upload failed")
)

// ValidationError carries a field-specific message safe to show clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
