package core

import "errors"

// ClearConfirmationToken must accompany a clear-all request.
const ClearConfirmationToken = "DELETE_ALL_INVENTORY"

var (
	// ErrTransport wraps failures to reach the inventory server.
	ErrTransport = errors.New("transport error")

	// ErrNotFound is returned when an item id does not exist, usually because
	// another operator deleted it.
	ErrNotFound = errors.New("inventory item not found")

	// ErrConfirmationRequired is returned by clear-all without the token.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrSessionNotFound is returned for unknown or expired staging sessions.
	ErrSessionNotFound = errors.New("staging session not found")

	// ErrInvalidCSV wraps CSV parse failures.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrEmptyFile is returned for uploads with no header or no data rows.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidField is returned for unknown column names and rejected edits.
	ErrInvalidField = errors.New("invalid field")

	// ErrRowOutOfRange is returned when a staged row index does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrNothingToImport is returned when committing an empty batch.
	ErrNothingToImport = errors.New("nothing to import")

	// ErrTooManyImports is returned when all import slots are occupied and the
	// wait timeout expires. Clients should retry after a short delay.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)
