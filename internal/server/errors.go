package server

import (
	"errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collector"
	"github.com/go-tangra/go-tangra-remote-admin/internal/hosts"
	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

// toHTTPError maps domain errors onto kratos errors, which carry both the
// HTTP status and a reason string.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr),
		errors.Is(err, session.ErrNoHost),
		errors.Is(err, hosts.ErrHostFile),
		errors.Is(err, collector.ErrInvalidProductID):
		return kerrors.BadRequest("INVALID_ARGUMENT", err.Error())
	case errors.Is(err, session.ErrNotFound):
		return kerrors.NotFound("SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, collector.ErrProductNotFound):
		return kerrors.NotFound("PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, collection.ErrRoundActive), errors.Is(err, collection.ErrNotCleared):
		return kerrors.Conflict("ROUND_ACTIVE", err.Error())
	case errors.Is(err, remote.ErrUnreachable):
		return kerrors.ServiceUnavailable("HOST_UNREACHABLE", remote.UserMessage(err))
	case errors.Is(err, remote.ErrAccessDenied):
		return kerrors.Forbidden("ACCESS_DENIED", remote.UserMessage(err))
	case errors.Is(err, remote.ErrSecurity):
		return kerrors.Forbidden("SECURITY_ERROR", remote.UserMessage(err))
	case errors.Is(err, remote.ErrTransport):
		return kerrors.ServiceUnavailable("TRANSPORT_ERROR", remote.UserMessage(err))
	}
	return kerrors.InternalServer("INTERNAL", err.Error())
}

// toStatus maps domain errors onto gRPC status errors.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr),
		errors.Is(err, session.ErrNoHost),
		errors.Is(err, hosts.ErrHostFile),
		errors.Is(err, collector.ErrInvalidProductID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, session.ErrNotFound), errors.Is(err, collector.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, collection.ErrRoundActive), errors.Is(err, collection.ErrNotCleared):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, remote.ErrUnreachable), errors.Is(err, remote.ErrTransport):
		return status.Error(codes.Unavailable, remote.UserMessage(err))
	case errors.Is(err, remote.ErrAccessDenied), errors.Is(err, remote.ErrSecurity):
		return status.Error(codes.PermissionDenied, remote.UserMessage(err))
	}
	return status.Error(codes.Internal, err.Error())
}
