package worker

import (
	"errors"

	"github.com/example/shopsync/internal/core/order"
	"github.com/example/shopsync/internal/ports/secondary"
)

// Classify maps a per-item error to its dead-letter reason. Validation
// failures carry their field-level issues for later automated repair;
// anything a processor did not tag explicitly is an exception.
func Classify(err error) (reason string, issues []string) {
	var verr *order.ValidationError
	if errors.As(err, &verr) {
		return secondary.ReasonValidationFailed, verr.Issues
	}

	var failure *secondary.Failure
	if errors.As(err, &failure) {
		return failure.Reason, nil
	}

	var apiErr *secondary.APIError
	if errors.As(err, &apiErr) && apiErr.IsRejection() {
		// An explicit storefront rejection without a processor tag: the
		// operation context is lost, record it as invalid.
		return secondary.ReasonInvalidResponse, nil
	}

	return secondary.ReasonException, nil
}
