package server

import (
	"fmt"
	"log/slog"
	"time"
)

// Middleware is a function that wraps a HandlerFunc to add functionality
type Middleware func(next HandlerFunc) HandlerFunc

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// LoggingMiddleware logs HTTP requests and responses
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(request *Request) (*Response, error) {
			start := time.Now()

			logger.Debug("request",
				"method", request.Method,
				"target", request.Target,
				"remote", request.RemoteAddr,
			)

			response, err := next(request)
			duration := time.Since(start)

			if err != nil {
				logger.Error("request failed",
					"method", request.Method,
					"target", request.Target,
					"remote", request.RemoteAddr,
					"duration", duration,
					"error", err,
				)
			} else if response != nil {
				logger.Info("response",
					"method", request.Method,
					"target", request.Target,
					"remote", request.RemoteAddr,
					"status", response.StatusCode,
					"duration", duration,
					"size", len(response.Body),
				)
			}

			return response, err
		}
	}
}

// RecoverMiddleware turns a panic further down the chain into an error so
// the connection still gets a 500.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(request *Request) (response *Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic", "target", request.Target, "panic", r)
					response, err = nil, fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(request)
		}
	}
}
