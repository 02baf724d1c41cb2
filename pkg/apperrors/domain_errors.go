package apperrors

import "fmt"

var (
	// Availability
	ErrInvalidTimeRange  = InvalidArg("end_at must be after start_at")
	ErrPastTimeRange     = InvalidArg("time range must be in the future")
	ErrOverlappingSlot   = InvalidArg("an overlapping window already exists for this user")
	ErrOfferNotFound     = NotFound("offer not found")
	ErrRequestNotFound   = NotFound("request not found")
	ErrSlotNoLongerAvail = NotFound("offer or request no longer available")
	ErrSlotHasMatches    = FailedPrecondition("window has a pending, accepted or confirmed match")

	// Matches
	ErrMatchNotFound    = NotFound("match not found")
	ErrNotMatchParty    = Forbidden("not authorized to respond to this match")
	ErrLockUnavailable  = Unavailable("resource is temporarily locked, retry later")

	// Messages
	ErrRecipientNotFound = NotFound("recipient not found")
	ErrSelfMessage       = InvalidArg("cannot send message to yourself")
	ErrMessageNotFound   = NotFound("message not found")
	ErrNotRecipient      = Forbidden("cannot mark other user's messages as read")

	// Users
	ErrUserNotFound     = NotFound("user not found")
	ErrEmailTaken       = InvalidArg("a user with this email already exists")
	ErrBadCredentials   = Unauthorized("invalid email or password")
	ErrInvalidAuthToken = Unauthorized("invalid or expired token")
)

// ErrInvalidTransition reports a wrong-state attempt with the current status for context.
func ErrInvalidTransition(action string, current string) error {
	return FailedPrecondition(fmt.Sprintf("cannot %s match in %s status", action, current))
}
