package httpapi

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/heatwave-risk-api/internal/heatrisk"
	"github.com/i474232898/heatwave-risk-api/internal/logging"
	"github.com/i474232898/heatwave-risk-api/internal/registry"
	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/weather"
)

const serviceName = "heatwave-risk-api"

// Error kinds reported alongside the error message.
const (
	KindInvalidRequest     = "invalid_request"
	KindNotFound           = "not_found"
	KindUpstreamWeather    = "upstream_weather"
	KindUpstreamClassifier = "upstream_classifier"
	KindInternal           = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewApp builds the Fiber app with the shared error handler and middleware.
// Routes are added with RegisterRoutes.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Upstream fan-out can take a while; handlers bound their own calls.
		WriteTimeout: 2 * time.Minute,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	app.Use(requestLogger())

	return app
}

// errorHandler renders every error as {"error": message, "kind": kind}.
func errorHandler(c *fiber.Ctx, err error) error {
	status, kind, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("path", c.Path()).Str("kind", kind).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).Msg("request failed")
	}
	return c.Status(status).JSON(errorResponse{Error: msg, Kind: kind})
}

func classify(err error) (int, string, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		switch {
		case fe.Code == fiber.StatusNotFound:
			return fe.Code, KindNotFound, fe.Message
		case fe.Code < fiber.StatusInternalServerError:
			return fe.Code, KindInvalidRequest, fe.Message
		default:
			return fe.Code, KindInternal, fe.Message
		}
	case errors.Is(err, registry.ErrNotFound):
		return fiber.StatusNotFound, KindNotFound, "Pincode not found"
	case errors.Is(err, heatrisk.ErrInvalidInput):
		return fiber.StatusBadRequest, KindInvalidRequest, err.Error()
	case errors.Is(err, weather.ErrGateway):
		return fiber.StatusInternalServerError, KindUpstreamWeather, err.Error()
	case errors.Is(err, risk.ErrClassifier):
		return fiber.StatusInternalServerError, KindUpstreamClassifier, err.Error()
	default:
		return fiber.StatusInternalServerError, KindInternal, err.Error()
	}
}

// requestLogger logs one line per request after the error handler has set the status.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logging.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("http request")
		return nil
	}
}
