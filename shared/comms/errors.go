package comms

import (
	"errors"

	"github.com/mwindels/remote-raytracer/shared/state"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain marks error details produced by this service.
const ErrorDomain = "raytracer"

// ToStatus converts err into a gRPC status error that carries its kind.
// Errors that already are statuses pass through untouched.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	var serr *state.Error
	if !errors.As(err, &serr) {
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(codes.Internal, err.Error())
	}

	code := codes.Internal
	switch {
	case serr.Kind.Validation():
		code = codes.InvalidArgument
	case serr.Kind == state.KindSceneNotCached:
		code = codes.FailedPrecondition
	}

	st := status.New(code, serr.Msg)
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: serr.Kind.String(), Domain: ErrorDomain}); derr == nil {
		st = detailed
	}
	return st.Err()
}

// FromStatus converts an error returned by a call into a *state.Error.
// Anything the worker did not classify itself is a transport error.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}

	if st, ok := status.FromError(err); ok {
		for _, detail := range st.Details() {
			info, isInfo := detail.(*errdetails.ErrorInfo)
			if !isInfo || info.GetDomain() != ErrorDomain {
				continue
			}
			if kind := state.ParseErrorKind(info.GetReason()); kind != state.KindUnknown {
				return &state.Error{Kind: kind, Msg: st.Message()}
			}
		}
	}

	return &state.Error{Kind: state.KindTransport, Msg: err.Error()}
}
