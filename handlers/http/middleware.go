package httpHandler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"users-server/apperrors"
	"users-server/logger"
	"users-server/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	APIKeyHeader    = "X-API-Key"
	requestIDKey    = "request_id"
)

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one log line per request and counts it.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		ev := logger.Info()
		if status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

// Recovery turns a panic into a 500 without leaking its value.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Str("request_id", requestID(c)).
			Interface("panic", recovered).
			Msg("Recovered from panic")
		renderError(c, apperrors.New(apperrors.ErrCodeInternal, "internal server error"))
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     *apperrors.AppError `json:"error"`
	RequestID string              `json:"request_id"`
}

func renderError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	body, ok := apperrors.As(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("request_id", requestID(c)).Msg("Request failed")
		code := apperrors.ErrCodeInternal
		if ok {
			code = body.Code
		}
		// Store and internal failures never reach the client verbatim.
		body = apperrors.New(code, "internal server error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     body,
		RequestID: requestID(c),
	})
}

// fail attaches err for ErrorHandler and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// APIKey gates a route group behind a static shared secret.
func APIKey(expected string) gin.HandlerFunc {
	want := []byte(expected)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(APIKeyHeader))
		if len(got) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			c.Header("WWW-Authenticate", APIKeyHeader)
			fail(c, apperrors.NewUnauthorizedError("invalid or missing API key"))
			return
		}
		c.Next()
	}
}
