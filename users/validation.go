package users

import (
	"fmt"
	"regexp"
	"strings"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the same loose shape check the API's login form uses
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateForCreate checks the fields the API requires for a new user
func validateForCreate(u User) error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", apierrors.ErrInvalidRequest)
	}
	if !ValidEmail(u.Email) {
		return fmt.Errorf("%w: %q", apierrors.ErrInvalidEmail, u.Email)
	}
	if u.Password == "" {
		return fmt.Errorf("%w: password is required", apierrors.ErrInvalidRequest)
	}
	return validateRole(u)
}

func validateForUpdate(u User) error {
	if u.Email != "" && !ValidEmail(u.Email) {
		return fmt.Errorf("%w: %q", apierrors.ErrInvalidEmail, u.Email)
	}
	return validateRole(u)
}

func validateRole(u User) error {
	if u.Role != "" && !u.Role.Valid() {
		return fmt.Errorf("%w: role %q", apierrors.ErrInvalidRequest, u.Role)
	}
	return nil
}
