package notification

import "errors"

var errNoAddress = errors.New("recipient has no usable email address")
