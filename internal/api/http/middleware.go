package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campusdesk/issue-tracker/internal/observability"
	apperrors "github.com/campusdesk/issue-tracker/pkg/util/errorutil"
)

// MiddlewareConfig tunes the global middleware chain.
type MiddlewareConfig struct {
	Timeout time.Duration
	// ExposeInternalErrors attaches the underlying error text to 500 responses.
	ExposeInternalErrors bool
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger wraps the error handler so it sees the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, cfg.ExposeInternalErrors))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					response["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= http.StatusInternalServerError {
					logger.Error("request failed", zap.Error(domainErr))
					if exposeInternal && domainErr.Err != nil {
						response["error"] = domainErr.Err.Error()
					}
				}
				c.Status(domainErr.HTTPStatus)
				err = c.JSON(response)
			}
		}()
		return c.Next()
	}
}

// toDomainError also understands fiber's own errors (unknown route, bad body).
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return apperrors.NewDomainError(codeForStatus(fe.Code), fe.Message, fe.Code, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDomainError(apperrors.CodeInternal, "request timed out", http.StatusGatewayTimeout, nil)
	}
	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.CodeValidation
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthenticated
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	default:
		return apperrors.CodeInternal
	}
}
