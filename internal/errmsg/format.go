// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Notification operations
	OpNotificationShow    Op = "show player notification"
	OpNotificationHide    Op = "hide player notification"
	OpNotificationRelease Op = "release player notification"
	OpNotificationConnect Op = "connect to notification server"

	// Companion service
	OpServiceStart Op = "start media player service"

	// Track operations
	OpTrackLoad Op = "load track"
	OpCoverLoad Op = "load cover art"

	// Initialization
	OpConfigLoad Op = "load config"
	OpLogOpen    Op = "open log file"
	OpStateOpen  Op = "open state database"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
