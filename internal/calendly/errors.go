package calendly

import "errors"

var errNoEventType = errors.New("calendly: user has no active event types")
