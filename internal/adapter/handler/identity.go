package handler

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// Identity headers are set by the gateway after it has authenticated the caller.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserType = "X-User-Type"
)

var errUnauthenticated = errors.New("unauthenticated")

type identity struct {
	userID string
	role   domain.Role
}

func parseIdentity(userID, userType string) (identity, error) {
	if userID == "" || userType == "" {
		return identity{}, errUnauthenticated
	}
	role := domain.Role(userType)
	if !role.Valid() {
		return identity{}, fmt.Errorf("%w: unknown user type %q", errUnauthenticated, userType)
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return identity{}, fmt.Errorf("%w: malformed user id", errUnauthenticated)
	}
	return identity{userID: id.String(), role: role}, nil
}

type forbiddenError struct {
	role domain.Role
}

func (e *forbiddenError) Error() string {
	return fmt.Sprintf("not authorized. please login as a `%s`", e.role)
}

func (e *forbiddenError) Is(target error) bool {
	return target == domain.ErrForbidden
}

func (id identity) require(role domain.Role) error {
	if id.role != role {
		return &forbiddenError{role: role}
	}
	return nil
}

// canonicalSellerID returns id in the lowercase hyphenated form used for
// storage and cache keys.
func canonicalSellerID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", &domain.ValidationError{Reason: "invalid seller id"}
	}
	return parsed.String(), nil
}
