package httpapi

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/heatwave-risk-api/internal/heatrisk"
	"github.com/i474232898/heatwave-risk-api/internal/risk"
	"github.com/i474232898/heatwave-risk-api/internal/store"
)

var validate = validator.New()

// RiskService is the aggregation layer the handlers call into.
type RiskService interface {
	RiskMap(ctx context.Context) (heatrisk.RiskMap, error)
	Forecast(ctx context.Context, days int) (heatrisk.Forecast, error)
	LocationDetail(ctx context.Context, pincode int) (heatrisk.LocationDetail, error)
	Statistics(ctx context.Context) (heatrisk.Statistics, error)
	HighRiskAreas(ctx context.Context, threshold int) (heatrisk.HighRiskAreas, error)
}

// Options carries the query defaults and the optional health/metrics wiring.
type Options struct {
	DefaultForecastDays int
	MaxForecastDays     int
	RegistrySize        int

	// Probes feeds /health; nil reports no upstream status.
	Probes *store.MemoryStore

	// Gatherer backs /metrics; nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

var endpoints = []string{
	"GET /api/risk-map",
	"GET /api/risk-forecast",
	"GET /api/pincode/:pincode",
	"GET /api/statistics",
	"GET /api/high-risk-areas",
}

type levelInfo struct {
	Level risk.Level `json:"risk_level"`
	Label string     `json:"risk_label"`
	Color string     `json:"color"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service RiskService, opts Options) {
	if opts.DefaultForecastDays <= 0 {
		opts.DefaultForecastDays = 5
	}
	if opts.MaxForecastDays <= 0 {
		opts.MaxForecastDays = 16
	}

	app.Get("/", func(c *fiber.Ctx) error {
		levels := make([]levelInfo, 0, 4)
		for _, l := range risk.Levels() {
			levels = append(levels, levelInfo{Level: l, Label: l.Label(), Color: l.Color()})
		}
		return c.JSON(fiber.Map{
			"message":     "Heatwave Risk Prediction API",
			"version":     "1.0",
			"endpoints":   endpoints,
			"risk_levels": levels,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		upstreams := []store.ProbeResult{}
		if opts.Probes != nil {
			upstreams = opts.Probes.LatestAll()
			for _, p := range upstreams {
				if !p.OK {
					status = "degraded"
				}
			}
		}
		return c.JSON(fiber.Map{
			"status":        status,
			"service":       serviceName,
			"registry_size": opts.RegistrySize,
			"upstreams":     upstreams,
		})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	api.Get("/risk-map", func(c *fiber.Ctx) error {
		rm, err := service.RiskMap(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(rm)
	})

	api.Get("/risk-forecast", func(c *fiber.Ctx) error {
		days, err := intQuery(c, "days", opts.DefaultForecastDays, "gte=1,lte="+strconv.Itoa(opts.MaxForecastDays))
		if err != nil {
			return err
		}
		fc, err := service.Forecast(c.UserContext(), days)
		if err != nil {
			return err
		}
		return c.JSON(fc)
	})

	api.Get("/pincode/:pincode", func(c *fiber.Ctx) error {
		pincode, err := strconv.Atoi(c.Params("pincode"))
		if err != nil || pincode <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "pincode must be a positive integer")
		}
		detail, err := service.LocationDetail(c.UserContext(), pincode)
		if err != nil {
			return err
		}
		return c.JSON(detail)
	})

	api.Get("/statistics", func(c *fiber.Ctx) error {
		stats, err := service.Statistics(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	})

	api.Get("/high-risk-areas", func(c *fiber.Ctx) error {
		threshold, err := intQuery(c, "threshold", int(risk.HighRiskThreshold), "gte=0,lte=3")
		if err != nil {
			return err
		}
		areas, err := service.HighRiskAreas(c.UserContext(), threshold)
		if err != nil {
			return err
		}
		return c.JSON(areas)
	})
}

// intQuery reads an integer query parameter, using def when it is absent and
// rejecting non-integers and values outside the validator rule.
func intQuery(c *fiber.Ctx, key string, def int, rule string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, key+" must be an integer")
	}
	if err := validate.Var(n, rule); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": "+err.Error())
	}
	return n, nil
}
