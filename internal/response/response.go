// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

const internalErrorMessage = "Internal Server Error"

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

type Envelope struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Data         any      `json:"data,omitempty"`
	User         any      `json:"user,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Meta         Meta     `json:"meta"`
}

// Send fills in the meta block and writes env with status.
func Send(c *fiber.Ctx, status int, env Envelope) error {
	env.Meta = Meta{Timestamp: time.Now().UTC(), RequestID: RequestID(c)}
	return c.Status(status).JSON(env)
}

func Success(c *fiber.Ctx, status int, message string, data any) error {
	return Send(c, status, Envelope{Success: true, Message: message, Data: data})
}

func User(c *fiber.Ctx, status int, message string, user any) error {
	return Send(c, status, Envelope{Success: true, Message: message, User: user})
}

func Error(c *fiber.Ctx, status int, message string, details ...string) error {
	return Send(c, status, Envelope{Success: false, Message: message, Errors: details})
}

// RequestID returns the id assigned by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(constant.RequestIDLocal).(string); ok {
		return id
	}
	return c.GetRespHeader(constant.RequestIDHeader)
}

func userID(c *fiber.Ctx) string {
	if id, ok := c.Locals(constant.IdentityLocal).(domain.Authenticated); ok {
		return id.ID
	}
	return ""
}

// ErrorHandler is the application-wide fiber error handler. Errors from the auth
// taxonomy keep their message; anything else becomes a 500 whose detail is only
// exposed outside production.
func ErrorHandler(log logging.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := autherror.Status(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		message := err.Error()
		var details []string

		var ve *autherror.ValidationError
		if errors.As(err, &ve) {
			details = ve.Details
		}

		fields := []any{"request_id", RequestID(c), "path", c.Path(), "user_id", userID(c), "status", status}
		if status >= http.StatusInternalServerError {
			log.Error(c.UserContext(), "request failed", append(fields, "error", err)...)
			message = internalErrorMessage
			if !production {
				details = append(details, err.Error())
			}
		} else {
			log.Warn(c.UserContext(), message, fields...)
		}

		return Error(c, status, message, details...)
	}
}
