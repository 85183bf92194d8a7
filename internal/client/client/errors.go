package client

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// BackendError is a failed backend call carrying the symbolic code the
// backend reported, or one derived from the transport status.
type BackendError struct {
	code  string
	cause error
}

func (e *BackendError) Error() string {
	if e.code == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.code, e.cause)
}

func (e *BackendError) Code() string  { return e.code }
func (e *BackendError) Unwrap() error { return e.cause }

// mapError converts a gRPC failure. A status message of the form
// "auth/<reason>" is taken as the symbolic code; otherwise the status code
// decides. Transport-level failures wrap ErrUnavailable or ErrUnauthorized.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	cause := fmt.Errorf("rpc error: %w", err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		cause = ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		cause = ErrUnavailable
	}

	if msg := st.Message(); strings.HasPrefix(msg, "auth/") {
		return &BackendError{code: msg, cause: cause}
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return &BackendError{code: autherr.CodeNetworkFailed, cause: cause}
	case codes.ResourceExhausted:
		return &BackendError{code: autherr.CodeTooManyRequests, cause: cause}
	case codes.Canceled:
		return &BackendError{code: autherr.CodeRequestCanceled, cause: cause}
	default:
		return &BackendError{cause: cause}
	}
}
