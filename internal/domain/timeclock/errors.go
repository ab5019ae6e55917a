package timeclock

import "errors"

var (
	ErrRequestNotFound      = errors.New("timeclock request not found")
	ErrRequestNotProcessing = errors.New("timeclock request is not in processing state")
	ErrRequestInFlight      = errors.New("timeclock request is being processed by this worker")
	ErrInvalidRequestStatus = errors.New("invalid timeclock request status")
)
