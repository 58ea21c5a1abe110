package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	APIErrorConfigMissing = "SASE_CONFIG_MISSING"
	APIErrorAuthFailed    = "SASE_AUTH_FAILED"
	APIErrorAuthMalformed = "SASE_AUTH_MALFORMED"
	APIErrorRequestFailed = "SASE_REQUEST_FAILED"
	APIErrorBadInput      = "SASE_BAD_INPUT"
	APIErrorNotFound      = "SASE_NOT_FOUND"
	APIErrorInternal      = "SASE_INTERNAL_ERROR"
)

// NewConfigurationError signals a required setting that is absent or empty.
// Raised before any network activity.
func NewConfigurationError(name string) error {
	return goerrors.New("config: required setting "+name+" is not set", goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(APIErrorConfigMissing).
		WithMetadata(map[string]any{"setting": name})
}

// NewAuthError signals a failed token exchange: transport failure or non-2xx
// from the authorization endpoint.
func NewAuthError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(APIErrorAuthFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// WrapAuthError wraps an underlying transport error from the token exchange.
func WrapAuthError(source error, message string, metadata map[string]any) error {
	if source == nil {
		return NewAuthError(message, metadata)
	}
	err := goerrors.Wrap(source, goerrors.CategoryAuth, message).
		WithCode(http.StatusUnauthorized).
		WithTextCode(APIErrorAuthFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewAuthMalformedError signals a 2xx token response without a usable
// access_token field.
func NewAuthMalformedError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(APIErrorAuthMalformed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewRequestError signals a non-2xx status on an API call. The endpoint and
// status travel in metadata so traversal code can log branch failures.
func NewRequestError(endpoint string, status int, snippet string) error {
	return goerrors.New("api: request to "+endpoint+" failed", goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(APIErrorRequestFailed).
		WithMetadata(map[string]any{
			"endpoint": endpoint,
			"status":   status,
			"response": snippet,
		})
}

// WrapRequestError wraps a transport-level failure for an API call.
func WrapRequestError(source error, endpoint string) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, "api: request to "+endpoint+" failed").
		WithCode(http.StatusBadGateway).
		WithTextCode(APIErrorRequestFailed).
		WithMetadata(map[string]any{"endpoint": endpoint})
}

// NewBadInputError signals invalid caller input before dispatch.
func NewBadInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(APIErrorBadInput)
}

// IsConfigurationError reports whether err is a missing-setting failure.
func IsConfigurationError(err error) bool {
	return hasTextCode(err, APIErrorConfigMissing)
}

// IsAuthError reports whether err came from the token exchange, malformed
// responses included.
func IsAuthError(err error) bool {
	return hasTextCode(err, APIErrorAuthFailed) || hasTextCode(err, APIErrorAuthMalformed)
}

// IsRequestError reports whether err is a per-call API failure.
func IsRequestError(err error) bool {
	return hasTextCode(err, APIErrorRequestFailed)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), textCode)
}

// EnsureAPIErrorEnvelope backfills code and text code on rich errors that
// escaped the constructors above.
func EnsureAPIErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = apiHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAPITextCode(err.Category)
	}
	return err
}

// MapAPIError normalizes arbitrary errors into the repository taxonomy.
func MapAPIError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return EnsureAPIErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return EnsureAPIErrorEnvelope(mapped)
}

func defaultAPITextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return APIErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return APIErrorAuthFailed
	case goerrors.CategoryNotFound:
		return APIErrorNotFound
	case goerrors.CategoryExternal:
		return APIErrorRequestFailed
	default:
		return APIErrorInternal
	}
}

func apiHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
