package utils

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/apperror"
)

const (
	// ProblemBaseURI prefixes the "type" member of every error body.
	ProblemBaseURI = "https://parking-slots.local/problems"

	CorrelationIDKey    = "correlationID"
	CorrelationIDHeader = "X-Correlation-ID"
)

// Problem is the error envelope written for every failed request.
type Problem struct {
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Status        int                 `json:"status"`
	Detail        string              `json:"detail"`
	Instance      string              `json:"instance"`
	Code          string              `json:"code"`
	CorrelationID string              `json:"correlation_id"`
	Errors        map[string][]string `json:"errors,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return 422
	case apperror.KindAlreadyExists, apperror.KindConflict:
		return 409
	case apperror.KindNotFound:
		return 404
	case apperror.KindForbidden:
		return 403
	case apperror.KindInvalidCredentials, apperror.KindAuthenticationFailed:
		return 401
	case apperror.KindRateLimited:
		return 429
	default:
		return 500
	}
}

// SendError aborts the request with the problem envelope for err.
func SendError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	status := StatusFor(appErr.Kind)

	switch appErr.Kind {
	case apperror.KindInvalidCredentials, apperror.KindAuthenticationFailed:
		c.Header("WWW-Authenticate", "Bearer")
	case apperror.KindRateLimited:
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(appErr)))
	case apperror.KindInternal:
		slog.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("correlation_id", c.GetString(CorrelationIDKey)),
			slog.Any("error", err),
		)
	}

	detail := appErr.Detail
	if detail == "" {
		detail = appErr.Title
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Problem{
		Type:          ProblemBaseURI + "/" + strings.ToLower(appErr.Code),
		Title:         appErr.Title,
		Status:        status,
		Detail:        detail,
		Instance:      c.Request.URL.Path,
		Code:          appErr.Code,
		CorrelationID: c.GetString(CorrelationIDKey),
		Errors:        appErr.Fields,
	})
}

func retryAfterSeconds(e *apperror.Error) int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
