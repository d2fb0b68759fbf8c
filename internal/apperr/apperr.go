// Package apperr defines the application error envelope.
//
// Every failure surfaced by the credential and quote services is a
// *goerrors.Error carrying a category, an HTTP status and a text code.
// Callers branch on Kind instead of inspecting messages.
package apperr

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Kind identifies the class of an application error.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindAlreadyRegistered
	KindNotFound
	KindProvider
	KindInternal
)

// Text codes attached to each kind.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeNotFound          = "NOT_FOUND"
	CodeProvider          = "PROVIDER_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlreadyRegistered:
		return "already_registered"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type kindInfo struct {
	category goerrors.Category
	status   int
	textCode string
}

var kinds = map[Kind]kindInfo{
	KindValidation:        {goerrors.CategoryValidation, http.StatusBadRequest, CodeValidation},
	KindAlreadyRegistered: {goerrors.CategoryConflict, http.StatusConflict, CodeAlreadyRegistered},
	KindNotFound:          {goerrors.CategoryNotFound, http.StatusNotFound, CodeNotFound},
	KindProvider:          {goerrors.CategoryExternal, http.StatusBadGateway, CodeProvider},
	KindInternal:          {goerrors.CategoryInternal, http.StatusInternalServerError, CodeInternal},
}

// New builds an error of the given kind.
func New(kind Kind, message string) error {
	info := infoFor(kind)
	return goerrors.New(message, info.category).
		WithCode(info.status).
		WithTextCode(info.textCode)
}

// Wrap builds an error of the given kind carrying cause.
// A nil cause behaves like New.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return New(kind, message)
	}
	info := infoFor(kind)
	return goerrors.Wrap(cause, info.category, message).
		WithCode(info.status).
		WithTextCode(info.textCode)
}

// Validation reports missing or malformed input.
func Validation(message string) error {
	return New(KindValidation, message)
}

// AlreadyRegistered reports an email that already has a live record.
func AlreadyRegistered(message string) error {
	return New(KindAlreadyRegistered, message)
}

// NotFound reports an absent validation token or API key.
func NotFound(message string) error {
	return New(KindNotFound, message)
}

// Provider reports a market-data or mail provider failure.
func Provider(cause error, message string) error {
	return Wrap(KindProvider, cause, message)
}

// Internal wraps an unexpected store or dispatch failure.
func Internal(cause error, message string) error {
	return Wrap(KindInternal, cause, message)
}

// KindOf returns the kind of err, or KindUnknown when err is not an
// application error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return KindUnknown
	}
	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return KindValidation
	case goerrors.CategoryConflict:
		return KindAlreadyRegistered
	case goerrors.CategoryNotFound:
		return KindNotFound
	case goerrors.CategoryExternal:
		return KindProvider
	case goerrors.CategoryInternal:
		return KindInternal
	default:
		return KindUnknown
	}
}

// Is reports whether err is an application error of kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Status returns the HTTP status for err. Unknown errors map to 500.
func Status(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func infoFor(kind Kind) kindInfo {
	if info, ok := kinds[kind]; ok {
		return info
	}
	return kinds[KindInternal]
}
