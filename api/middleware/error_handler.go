// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/nebula-studio/api/models"
	"github.com/Annany2002/nebula-studio/internal/auth"
	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/logger"
)

var (
	customLog = logger.NewLogger()

	// ErrBadRequest marks malformed requests: bad JSON, bad path ids, bad query parameters.
	ErrBadRequest = errors.New("bad request")
)

// statusFor maps the engine's error taxonomy to HTTP statuses.
func statusFor(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownComponent):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrUniquenessViolation):
		return http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrValidationFailed), errors.Is(err, core.ErrUnknownField):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrProtected):
		return http.StatusForbidden, err.Error()
	case errors.As(err, &verrs):
		return http.StatusBadRequest, "Validation failed. Please check your input."
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Authentication token has expired."
	case errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenClaimsInvalid),
		errors.Is(err, auth.ErrUnexpectedSigningMethod),
		errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid or malformed authentication token."
	}
	return http.StatusInternalServerError, "An unexpected internal server error occurred."
}

// ErrorHandler renders the last error a handler attached. Per-field failures
// of validation and uniqueness errors are returned alongside the message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		statusCode, userMessage := statusFor(err)
		if statusCode == http.StatusInternalServerError {
			customLog.Warnf("ErrorHandler: Unhandled error type %T: %v", err, err)
		} else {
			customLog.Debugf("ErrorHandler: %d for %s %s: %v", statusCode, c.Request.Method, c.Request.URL.Path, err)
		}

		if c.Writer.Written() {
			customLog.Warnf("ErrorHandler: Response already written before handling error: %v", err)
			return
		}

		resp := models.ErrorResponse{Error: userMessage, Failures: core.Failures(err)}
		if bindFailures := core.StructFailures(err); bindFailures != nil {
			resp.Failures = bindFailures
		}
		c.AbortWithStatusJSON(statusCode, resp)
	}
}
