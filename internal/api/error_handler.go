package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/link-dashboard/internal/api/handler"
	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// Error codes the domain editing UI keys its messages on.
const (
	codeDomainInvalid        = "domain_invalid"
	codeDomainTaken          = "domain_taken"
	codeConfirmationMismatch = "confirmation_mismatch"
)

// errorResponse is the canonical error envelope for all API errors. Code and
// DomainError are only set for domain validation failures.
type errorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code,omitempty"`
	DomainError string `json:"domainError,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to exactly one HTTP status each.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, 405, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, errorResponse{Error: "project not found"}
	case errors.Is(err, domain.ErrInvalidDomain):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:       "invalid domain",
			Code:        codeDomainInvalid,
			DomainError: detail(err, domain.ErrInvalidDomain),
		}
	case errors.Is(err, handler.ErrConfirmationMismatch):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:       err.Error(),
			Code:        codeConfirmationMismatch,
			DomainError: fmt.Sprintf("Type %q to confirm.", handler.DomainChangeConfirmation),
		}
	case errors.Is(err, domain.ErrInvalidSlug):
		return http.StatusUnprocessableEntity, errorResponse{Error: detail(err, domain.ErrInvalidSlug)}
	case errors.Is(err, domain.ErrDomainConflict):
		return http.StatusBadRequest, errorResponse{
			Error:       "domain already in use",
			Code:        codeDomainTaken,
			DomainError: "That domain is already in use.",
		}
	case errors.Is(err, domain.ErrRenameInProgress), errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict, errorResponse{Error: "domain change already in progress, retry shortly"}
	case errors.Is(err, domain.ErrProjectExists):
		return http.StatusConflict, errorResponse{Error: "project already exists"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Warn().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("store unavailable")
		return http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// detail returns the text a wrapped sentinel was annotated with, or the
// sentinel's own text when there is none.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return sentinel.Error()
}
