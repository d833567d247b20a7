package types

import "errors"

var (
	// Malformed or unauthorized request. Rejected before any integration is called.
	ErrRequestVerification = errors.New("request verification failed")
	// Network failure reaching a vendor (timeout, DNS, TLS)
	ErrIntegrationTransport = errors.New("integration transport failure")
	// Vendor answered with a non 2xx status
	ErrIntegrationRejection = errors.New("integration rejected submission")
	// Attachment could not be read or uploaded. Never fatal to a submission.
	ErrLocalFile = errors.New("local file failure")
)

// UTC milliseconds since the unix epoch
type UnixMilli int64
