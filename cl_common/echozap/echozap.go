/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// Package echozap is an echo middleware that logs requests using a zap
// logger.  It is based on the LoggerWithConfig middleware bundled with
// echo.
package echozap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

// Logger returns echo middleware that writes one leveled zap entry per
// request.  The level follows the response class: 5xx error, 4xx warn,
// everything else info.
func Logger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			mwerr := next(c)
			if mwerr != nil {
				c.Error(mwerr)
			}
			latency := time.Since(start)

			req := c.Request()
			res := c.Response()

			fields := []zap.Field{
				zap.String("remote_ip", c.RealIP()),
				zap.String("host", req.Host),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("user_agent", req.UserAgent()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_out", res.Size),
			}
			if id := req.Header.Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, zap.String("id", id))
			}
			if mwerr != nil {
				fields = append(fields, zap.Error(mwerr))
			}

			n := res.Status
			statusText := http.StatusText(n)
			if statusText != "" {
				statusText = " " + statusText
			}
			switch {
			case n >= 500:
				msg := fmt.Sprintf("Server error (%d%s): %s", n,
					statusText, req.RequestURI)
				log.Error(msg, fields...)
			case n >= 400:
				msg := fmt.Sprintf("Client error (%d%s): %s", n,
					statusText, req.RequestURI)
				log.Warn(msg, fields...)
			default:
				msg := fmt.Sprintf("(%d%s): %s", n, statusText,
					req.RequestURI)
				log.Info(msg, fields...)
			}

			return nil
		}
	}
}
