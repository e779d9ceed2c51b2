package metrics

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Middleware returns an echo middleware that records metrics for each request.
// The registered route pattern is used as the label so that path parameters
// do not explode label cardinality.
func Middleware(collector *Collector, exporter *PrometheusExporter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			route := c.Path()

			collector.RecordRequest(route)
			if exporter != nil {
				exporter.RecordRequest(route)
			}

			err := next(c)

			duration := time.Since(start).Seconds()
			collector.RecordDuration(route, duration)
			if exporter != nil {
				exporter.RecordDuration(route, duration)
			}

			if err != nil || c.Response().Status >= 500 {
				collector.RecordError(route)
				if exporter != nil {
					exporter.RecordError(route)
				}
			}

			return err
		}
	}
}
