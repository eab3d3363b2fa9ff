package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

func statusFor(kind entity.Kind) int {
	switch kind {
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindForbidden:
		return http.StatusForbidden
	case entity.KindInvalidVariant, entity.KindEmptyCart, entity.KindValidationFailed:
		return http.StatusBadRequest
	case entity.KindOutOfStock:
		return http.StatusConflict
	case entity.KindTransportFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error", "kind"}. Only the domain message is
// shown; causes are logged.
func writeError(c *gin.Context, err error) {
	kind := entity.KindOf(err)
	status := statusFor(kind)

	msg := "internal server error"
	var de *entity.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "kind", kind, "err", err, "cause", errors.Unwrap(err))
	}
	c.JSON(status, gin.H{"error": msg, "kind": kind.String()})
}

func badRequest(c *gin.Context, err error) {
	writeError(c, entity.ValidationFailed("%s", err.Error()))
}
