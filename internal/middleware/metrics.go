package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nuesa_redis_errors_total",
		Help: "Total number of Redis command errors",
	},
	[]string{"command"},
)

// ApplicationTransitions counts lifecycle transitions by target status.
var ApplicationTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nuesa_application_transitions_total",
		Help: "Total number of application lifecycle transitions",
	},
	[]string{"to_status"},
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
