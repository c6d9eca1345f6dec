package pass

import "fmt"

// Status represents the current state of a pass application in its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

// validTransitions defines the state machine for pass status transitions.
// Admin decisions move pending to approved or rejected; a verified
// payment activates an approved pass; the expiry sweep retires it. An
// expired pass may return to active through a paid renewal inside the
// grace window.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusActive},
	StatusActive:   {StatusExpired},
	StatusRejected: {},
	StatusExpired:  {StatusActive},
}

// IsValid returns true if the status is a recognized pass status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsDecided returns true once an admin has acted on the application.
func (s Status) IsDecided() bool {
	return s != StatusPending
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid pass status: %s", s)
	}
	return status, nil
}
