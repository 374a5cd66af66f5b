package conversation

import "fmt"

const (
	CapabilityCompletion = "completion"
	CapabilityScheduling = "scheduling"
	CapabilityMail       = "mail"
)

// UpstreamError marks a failure of an external capability. It is logged and
// absorbed, never returned to the widget.
type UpstreamError struct {
	Capability string
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("conversation: %s unavailable: %v", e.Capability, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
