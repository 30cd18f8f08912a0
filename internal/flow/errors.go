package flow

import "errors"

// All coordinator failures are recoverable by the caller: conflict and
// not-found surface as user-facing prompts, the rest leave the flow exactly
// as it was.
var (
	// ErrFlowConflict is returned by Begin when the user already has a flow
	// in progress.
	ErrFlowConflict = errors.New("a media flow is already in progress for this user")

	// ErrFlowNotFound is returned when there is no active flow for the user,
	// including after TTL expiry.
	ErrFlowNotFound = errors.New("no active media flow for this user")

	// ErrPhotoLimit is returned by AddPhoto once the flow holds its maximum
	// number of photos.
	ErrPhotoLimit = errors.New("photo limit reached for this flow")

	// ErrIncomplete is returned by Finish when required inputs are missing
	// and the flow does not allow skipping.
	ErrIncomplete = errors.New("flow is missing required photos or text")
)
