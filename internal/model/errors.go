package model

import "errors"

// ErrBadGateway is returned when an upstream service (CDN, tag or user
// lookup) answers with a non-success status.
var ErrBadGateway = errors.New("upstream service returned an error")
