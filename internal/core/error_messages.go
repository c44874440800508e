package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Operators can quote the code to support staff for faster
// diagnosis; the technical error is always in the server log.
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Unreachable: Unable to connect to the document store
//	           Action: Please try again in a few moments
//	           Patterns: "connection refused", "server selection error"
//
//	STORE002 - Connection reset: Store connection was interrupted
//	           Action: Re-run the import; rows already written are kept
//	           Patterns: "connection reset"
//
//	STORE003 - Permission denied: The store rejected the write
//	           Action: Check the service account permissions
//	           Patterns: "permission denied", "unauthorized"
//
//	STORE004 - Timeout: Operation timed out
//	           Action: Re-run the import; rows already written are kept
//	           Patterns: "timeout", "i/o timeout"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Save the sheet as CSV and try again
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File could not be decoded
//	          Action: Save the file as UTF-8 or Shift_JIS
//	          Patterns: "invalid encoding"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to import
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a CSV file with data rows
//	          Patterns: "empty file"
//
//	FILE006 - Missing header rows: The style row or header row is missing
//	          Action: Keep the two header rows above the data
//	          Patterns: "missing header rows"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent imports"
//
//	IMP002 - Run expired: Import run not found
//	         Action: The result may have expired. Check the import history
//	         Patterns: "import run not found"
//
//	IMP003 - Cancelled: The import was cancelled
//	         Action: Re-run the import; rows already written are kept
//	         Patterns: "context canceled"
//
//	IMP004 - Deadline: The import ran past its time limit
//	         Action: Re-run the import; rows already written are kept
//	         Patterns: "context deadline exceeded"
//
//	ENT001 - Unknown entity: This import type is not configured
//	         Action: Choose an entity from the menu
//	         Patterns: "unknown entity"
//
// # Sign-in Errors (AUTH001-AUTH099)
//
//	AUTH001 - Bad credentials: Email or password is incorrect
//	          Action: Check your email and password
//	          Patterns: "invalid email or password"
//
//	AUTH002 - Signed out: Your session has ended
//	          Action: Please sign in again
//	          Patterns: "not signed in"
//
//	AUTH003 - Invalid form: Email and password are required
//	          Action: Enter a valid email and a password
//	          Patterns: "invalid login form"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application log for
// the original technical error when an operator reports ERR000.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgUnreachable = UserMessage{
		Message: "Unable to connect to the document store",
		Action:  "Please try again in a few moments",
		Code:    "STORE001",
	}
	msgPermission = UserMessage{
		Message: "The document store rejected the write",
		Action:  "Check the service account permissions",
		Code:    "STORE003",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Re-run the import; rows already written are kept",
		Code:    "STORE004",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the upload size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first match wins.
var errorPatterns = []errorPattern{
	// Store errors
	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "server selection error", msg: msgUnreachable},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Store connection was interrupted",
			Action:  "Re-run the import; rows already written are kept",
			Code:    "STORE002",
		},
	},
	{pattern: "permission denied", msg: msgPermission},
	{pattern: "unauthorized", msg: msgPermission},
	{pattern: "timeout", msg: msgTimeout},

	// File errors
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "request body too large", msg: msgTooLarge},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Save the sheet as CSV and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid encoding",
		msg: UserMessage{
			Message: "File could not be decoded",
			Action:  "Save the file as UTF-8 or Shift_JIS",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "missing header rows",
		msg: UserMessage{
			Message: "The style row or header row is missing",
			Action:  "Keep the two header rows above the data",
			Code:    "FILE006",
		},
	},

	// Import errors
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "import run not found",
		msg: UserMessage{
			Message: "Import run not found",
			Action:  "The result may have expired. Check the import history",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Re-run the import; rows already written are kept",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The import ran past its time limit",
			Action:  "Re-run the import; rows already written are kept",
			Code:    "IMP004",
		},
	},
	{
		pattern: "unknown entity",
		msg: UserMessage{
			Message: "This import type is not configured",
			Action:  "Choose an entity from the menu",
			Code:    "ENT001",
		},
	},

	// Sign-in errors
	{
		pattern: "invalid email or password",
		msg: UserMessage{
			Message: "Email or password is incorrect",
			Action:  "Check your email and password",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "not signed in",
		msg: UserMessage{
			Message: "Your session has ended",
			Action:  "Please sign in again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "invalid login form",
		msg: UserMessage{
			Message: "Email and password are required",
			Action:  "Enter a valid email and a password",
			Code:    "AUTH003",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000 when none matches.
//
// Example:
//
//	msg := MapError(errors.New("dial tcp: connection refused"))
//	// msg.Code == "STORE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
