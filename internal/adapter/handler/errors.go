package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type errorKind struct {
	status  int
	code    codes.Code
	message string
}

var (
	kindUnauthenticated = errorKind{http.StatusUnauthorized, codes.Unauthenticated, "missing or invalid caller identity"}
	kindForbidden       = errorKind{http.StatusForbidden, codes.PermissionDenied, "forbidden"}
	kindInvalid         = errorKind{http.StatusBadRequest, codes.InvalidArgument, "invalid request"}
	kindNotFound        = errorKind{http.StatusNotFound, codes.NotFound, "not found"}
	kindConflict        = errorKind{http.StatusConflict, codes.AlreadyExists, "already exists"}
	kindUnavailable     = errorKind{http.StatusServiceUnavailable, codes.Unavailable, "service temporarily unavailable"}
	kindInternal        = errorKind{http.StatusInternalServerError, codes.Internal, "internal server error"}
)

// classify maps a service error onto its transport representation. Messages
// of validation and authorization errors are passed to the caller verbatim.
func classify(err error) errorKind {
	var kind errorKind
	switch {
	case errors.Is(err, errUnauthenticated):
		kind = kindUnauthenticated
	case errors.Is(err, domain.ErrForbidden):
		kind = kindForbidden
	case errors.Is(err, domain.ErrValidationFailed):
		kind = kindInvalid
	case errors.Is(err, domain.ErrNotFound):
		kind = kindNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		kind = kindConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		kind = kindUnavailable
	default:
		return kindInternal
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		kind.message = ve.Error()
	}
	var fe *forbiddenError
	if errors.As(err, &fe) {
		kind.message = fe.Error()
	}
	return kind
}
