package middleware

import (
	"errors"
	"time"

	"go-storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count, latency and in-flight requests per route
// pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
