package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ndewijer/wealth-tracker/internal/apperrors"
)

// ErrInvalidID is returned for ids that are not positive integers.
var ErrInvalidID = apperrors.ErrInvalidID

// ValidateID checks that id is a positive integer and returns it.
func ValidateID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return n, nil
}

// validSymbol accepts 1-20 characters of letters, digits, '.', '-' or '_'.
func validSymbol(s string) bool {
	if len(s) == 0 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
