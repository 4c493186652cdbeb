package portalapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/internal/i18n"
	"github.com/danesh-portal/danesh/storage/model"
)

// Error codes of the JSON error body
const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeConflict        = "conflict"
	ErrorCodeTooManyRequests = "too_many_requests"
	ErrorCodeServerError     = "server_error"
)

// Error is the JSON body of every error response
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Message is the JSON body of responses that only carry a message
type Message struct {
	Message string `json:"message"`
}

func writeError(c *fiber.Ctx, status int, code string, msg i18n.MessageID) error {
	return c.Status(status).JSON(
		Error{
			Error:   code,
			Message: i18n.Tc(c, msg),
		},
	)
}

func badRequest(c *fiber.Ctx, msg i18n.MessageID) error {
	return writeError(c, fiber.StatusBadRequest, ErrorCodeInvalidRequest, msg)
}

func notFound(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusNotFound, ErrorCodeNotFound, i18n.MsgNotFound)
}

func conflict(c *fiber.Ctx, msg i18n.MessageID) error {
	return writeError(c, fiber.StatusConflict, ErrorCodeConflict, msg)
}

// serverError logs err and answers with the generic message; internals are
// never sent to the client
func serverError(c *fiber.Ctx, err error) error {
	log.WithError(err).WithFields(
		log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		},
	).Error("request failed")
	return writeError(c, fiber.StatusInternalServerError, ErrorCodeServerError, i18n.MsgServerError)
}

// DenyHandler writes the localized 401 and 403 responses of the access guard
func DenyHandler(c *fiber.Ctx, status int) error {
	if status == fiber.StatusForbidden {
		return writeError(c, status, ErrorCodeForbidden, i18n.MsgForbidden)
	}
	return writeError(c, fiber.StatusUnauthorized, ErrorCodeUnauthorized, i18n.MsgUnauthorized)
}

// TooManyRequests writes the response for rate limited requests
func TooManyRequests(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusTooManyRequests, ErrorCodeTooManyRequests, i18n.MsgTooManyRequests)
}

// ErrorHandler is the fiber.ErrorHandler for errors no handler answered
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return notFound(c)
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fiberErr.Code, ErrorCodeInvalidRequest, i18n.MsgFileTooLarge)
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fiberErr.Code, ErrorCodeInvalidRequest, i18n.MsgInvalidBody)
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return writeError(c, fiberErr.Code, ErrorCodeInvalidRequest, i18n.MsgInvalidBody)
		}
	}
	return serverError(c, err)
}

// storeError maps typed storage errors to responses; everything else is a 500
func storeError(c *fiber.Ctx, err error, conflictMsg i18n.MessageID) error {
	var notFoundErr model.NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFound(c)
	}
	var existsErr model.AlreadyExistsError
	if errors.As(err, &existsErr) {
		return conflict(c, conflictMsg)
	}
	var validationErr model.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(
			Error{
				Error:   ErrorCodeInvalidRequest,
				Message: validationErr.Error(),
			},
		)
	}
	return serverError(c, err)
}
