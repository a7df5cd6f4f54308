package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindCache
	KindUpstream
	KindNotFound
	KindMapping
)

const (
	CodeCacheError    = "CACHE_ERROR"
	CodeAPIError      = "API_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"

	GenericErrorMessage = "An unexpected error occurred. Please try again later."
)

// Sentinels for errors.Is checks. Every *Error matches the sentinel of its kind.
var (
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	ErrUpstream         = errors.New("upstream api error")
	ErrNotFound         = errors.New("entity not found")
	ErrMapping          = errors.New("unexpected upstream payload shape")
	ErrInternal         = errors.New("internal error")
)

// Error is the externally surfaced failure shape.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Code returns the stable machine-readable code.
func (e *Error) Code() string {
	switch e.Kind {
	case KindCache:
		return CodeCacheError
	case KindUpstream:
		return CodeAPIError
	case KindNotFound:
		return CodeNotFound
	default:
		return CodeInternalError
	}
}

// Status returns the HTTP status class for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindCache:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindCache:
		return ErrCacheUnavailable
	case KindUpstream:
		return ErrUpstream
	case KindNotFound:
		return ErrNotFound
	case KindMapping:
		return ErrMapping
	default:
		return ErrInternal
	}
}

func CacheError(msg string, err error) *Error {
	return &Error{Kind: KindCache, Message: msg, Err: err}
}

func UpstreamError(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func NotFoundError(name string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%q not found", name)}
}

func MappingError(msg string, err error) *Error {
	return &Error{Kind: KindMapping, Message: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
