package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Collector struct {
	RequestCount    atomic.Int64
	ErrorCount      atomic.Int64
	RequestDuration atomic.Int64 // nanoseconds total
	ActiveRequests  atomic.Int64

	LoginFailures atomic.Int64
	Lockouts      atomic.Int64

	startTime time.Time
}

var Default = &Collector{startTime: time.Now()}

func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		Default.ActiveRequests.Add(1)
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		Default.ActiveRequests.Add(-1)
		Default.RequestCount.Add(1)
		Default.RequestDuration.Add(duration.Nanoseconds())

		switch sc := c.Response().StatusCode(); {
		case sc >= 500:
			Default.ErrorCount.Add(1)
		case sc == fiber.StatusLocked:
			Default.Lockouts.Add(1)
		case sc == fiber.StatusUnauthorized && c.Path() == "/api/auth/login":
			Default.LoginFailures.Add(1)
		}

		return err
	}
}

func Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uptime := time.Since(Default.startTime).Seconds()
		totalRequests := Default.RequestCount.Load()
		totalErrors := Default.ErrorCount.Load()
		activeReqs := Default.ActiveRequests.Load()
		totalDuration := Default.RequestDuration.Load()
		loginFailures := Default.LoginFailures.Load()
		lockouts := Default.Lockouts.Load()

		var avgDuration float64
		if totalRequests > 0 {
			avgDuration = float64(totalDuration) / float64(totalRequests) / 1e6 // milliseconds
		}

		c.Set("Content-Type", "text/plain; version=0.0.4")

		body := fmt.Sprintf(`# HELP motoshop_uptime_seconds Time since server start
# TYPE motoshop_uptime_seconds gauge
motoshop_uptime_seconds %.2f

# HELP motoshop_http_requests_total Total HTTP requests
# TYPE motoshop_http_requests_total counter
motoshop_http_requests_total %d

# HELP motoshop_http_errors_total Total HTTP 5xx errors
# TYPE motoshop_http_errors_total counter
motoshop_http_errors_total %d

# HELP motoshop_http_active_requests Current active requests
# TYPE motoshop_http_active_requests gauge
motoshop_http_active_requests %d

# HELP motoshop_http_request_duration_avg_ms Average request duration in milliseconds
# TYPE motoshop_http_request_duration_avg_ms gauge
motoshop_http_request_duration_avg_ms %.2f

# HELP motoshop_login_failures_total Rejected login attempts
# TYPE motoshop_login_failures_total counter
motoshop_login_failures_total %d

# HELP motoshop_lockout_responses_total Requests refused with 423 Locked
# TYPE motoshop_lockout_responses_total counter
motoshop_lockout_responses_total %d
`, uptime, totalRequests, totalErrors, activeReqs, avgDuration, loginFailures, lockouts)

		return c.SendString(body)
	}
}
