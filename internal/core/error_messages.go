// Error codes reference.
//
// When operators encounter errors they can quote the code to support staff
// for faster diagnosis. Codes are grouped by category:
//
// # Inventory Errors (INV001-INV099)
//
//	INV001 - Item not found: the item was deleted or never existed
//	INV002 - Confirmation required: clear-all was requested without the token
//	INV003 - Invalid value: an edit or column name was rejected
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Session expired: the staging session is gone
//	IMP002 - System busy: too many imports in progress
//	IMP003 - Nothing to import: the batch has no rows
//	IMP004 - Row not found: the staged row index does not exist
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Encoding error
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Transport Errors (NET001-NET099)
//
//	NET001 - Server unreachable
//	NET002 - Request cancelled
//	NET003 - Request timed out
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate value
//	DB002 - Database busy
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
//
// Sentinel errors are matched first with errors.Is. Remaining errors are
// matched case-insensitively against text patterns; the first match wins,
// so specific patterns come before general ones.

package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrNotFound, UserMessage{
		Message: "This item no longer exists",
		Action:  "Refresh the list; another operator may have deleted it",
		Code:    "INV001",
	}},
	{ErrConfirmationRequired, UserMessage{
		Message: "Clearing the inventory needs confirmation",
		Action:  "Send the confirmation token " + ClearConfirmationToken,
		Code:    "INV002",
	}},
	{ErrInvalidField, UserMessage{
		Message: "A value was rejected",
		Action:  "Check names are non-empty and numbers are zero or greater",
		Code:    "INV003",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "Import preview has expired",
		Action:  "Upload the file again to start a new preview",
		Code:    "IMP001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{ErrNothingToImport, UserMessage{
		Message: "There are no rows to import",
		Action:  "Upload a CSV file with data rows",
		Code:    "IMP003",
	}},
	{ErrRowOutOfRange, UserMessage{
		Message: "That preview row does not exist",
		Action:  "Reload the preview and try again",
		Code:    "IMP004",
	}},
	{ErrInvalidCSV, UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "FILE005",
	}},
	{ErrTransport, UserMessage{
		Message: "Unable to reach the inventory server",
		Action:  "Check your connection and try again",
		Code:    "NET001",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Check the file for duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Check the file for duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the inventory server",
			Action:  "Check your connection and try again",
			Code:    "NET001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "NET003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "NET003",
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

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Sentinel
// errors are checked first, then text patterns. Unmatched errors return the
// ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// ErrorFromCode rebuilds a sentinel-wrapped error from a code received over
// the wire, so remote callers can still use errors.Is. Codes without a
// sentinel produce a plain error carrying the message.
func ErrorFromCode(code, message string) error {
	for _, sm := range sentinelMessages {
		if sm.msg.Code == code {
			if message == "" {
				return sm.err
			}
			return fmt.Errorf("%w: %s", sm.err, message)
		}
	}
	if message == "" {
		message = defaultMessage.Message
	}
	return errors.New(message)
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. Error
// returns the message; Unwrap returns the technical error.
type UserError struct {
	Err error
	Msg UserMessage
}

// NewUserError wraps err with its mapped message. Nil stays nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Err: err, Msg: MapError(err)}
}

func (e *UserError) Error() string { return e.Msg.Message }

func (e *UserError) Unwrap() error { return e.Err }
