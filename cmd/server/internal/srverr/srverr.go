package srverr

import "errors"

// A value stored on the echo context had an unexpected type
var ErrTypeAssertMismatch = errors.New("type assertion mismatch")
