package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"not found sentinel", ErrNotFound, "INV001"},
		{"wrapped not found", fmt.Errorf("delete item 4: %w", ErrNotFound), "INV001"},
		{"confirmation required", ErrConfirmationRequired, "INV002"},
		{"invalid field", fmt.Errorf("%w: quantity: Must be at least 0", ErrInvalidField), "INV003"},
		{"session expired", ErrSessionNotFound, "IMP001"},
		{"busy", ErrTooManyImports, "IMP002"},
		{"nothing to import", ErrNothingToImport, "IMP003"},
		{"empty file", fmt.Errorf("%w: no header row", ErrEmptyFile), "FILE005"},
		{"invalid csv", fmt.Errorf("%w: bare quote", ErrInvalidCSV), "FILE002"},
		{"transport", fmt.Errorf("%w: dial tcp", ErrTransport), "NET001"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"duplicate key text", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB002"},
		{"deadline", errors.New("context deadline exceeded"), "NET003"},
		{"case insensitive", errors.New("RATE LIMIT exceeded"), "RATE001"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestErrorFromCode(t *testing.T) {
	err := ErrorFromCode("INV001", "This item no longer exists")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ErrorFromCode(INV001) = %v, want ErrNotFound", err)
	}
	if err := ErrorFromCode("IMP001", ""); err != ErrSessionNotFound {
		t.Errorf("ErrorFromCode(IMP001) = %v, want bare sentinel", err)
	}

	plain := ErrorFromCode("ERR000", "boom")
	if plain.Error() != "boom" || errors.Is(plain, ErrNotFound) {
		t.Errorf("ErrorFromCode(ERR000) = %v", plain)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrConfirmationRequired)
	want := "Clearing the inventory needs confirmation (Code: INV002). Send the confirmation token DELETE_ALL_INVENTORY"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"sentinel is user facing", ErrNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := fmt.Errorf("update item 3: %w", ErrNotFound)
	userErr := NewUserError(techErr)
	if userErr.Error() != "This item no longer exists" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, ErrNotFound) {
		t.Error("Unwrap() should expose the sentinel")
	}
}
