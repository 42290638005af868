package catalog

import "errors"

var (
	ErrDuplicateCode = errors.New("product code already exists")
	ErrMissingField  = errors.New("all fields are mandatory")
	ErrNotFound      = errors.New("product not found")
	ErrInvalidPatch  = errors.New("invalid product patch")
	ErrStorageWrite  = errors.New("saving products failed")
	ErrCorruptBlob   = errors.New("catalog blob has an unreadable record")

	// ErrBlobMissing is returned by a Blob that has never been written.
	ErrBlobMissing = errors.New("blob does not exist")
)

const (
	OutcomeOK             = "ok"
	OutcomeDuplicateCode  = "duplicate_code"
	OutcomeMissingField   = "missing_field"
	OutcomeNotFound       = "not_found"
	OutcomeInvalidPatch   = "invalid_patch"
	OutcomeStorageFailure = "storage_failure"
	OutcomeCorruptBlob    = "corrupt_blob"
	OutcomeError          = "error"
)

// Outcome maps a store error to a stable label for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrDuplicateCode):
		return OutcomeDuplicateCode
	case errors.Is(err, ErrMissingField):
		return OutcomeMissingField
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInvalidPatch):
		return OutcomeInvalidPatch
	case errors.Is(err, ErrStorageWrite):
		return OutcomeStorageFailure
	case errors.Is(err, ErrCorruptBlob):
		return OutcomeCorruptBlob
	default:
		return OutcomeError
	}
}
