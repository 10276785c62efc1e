package mapping

import "fmt"

// InsufficientPointsError reports a session completed with too few
// captured points to form a boundary ring.
type InsufficientPointsError struct {
	Got  int
	Want int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("session requires at least %d captured points, got %d", e.Want, e.Got)
}

// InvalidSessionStateError reports a lifecycle operation attempted from a
// state that does not permit it.
type InvalidSessionStateError struct {
	Op     string
	Status SessionStatus
}

func (e *InvalidSessionStateError) Error() string {
	return fmt.Sprintf("cannot %s session in state %q", e.Op, e.Status)
}

// FieldNotFoundError reports a lookup miss on a field id.
type FieldNotFoundError struct {
	FieldID string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %s not found", e.FieldID)
}

// ZoneNotFoundError reports a lookup miss on a zone id.
type ZoneNotFoundError struct {
	ZoneID string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("zone %s not found", e.ZoneID)
}

// SessionNotFoundError reports a lookup miss on a session id.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}
