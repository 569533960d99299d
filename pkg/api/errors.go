package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/storage"
)

// respondError maps a domain error to the §7 error kind vocabulary and
// writes the corresponding envelope. Every path here ends in a stable code,
// never a free-form stack trace.
func respondError(c *gin.Context, err error) {
	var notFound *storage.ErrNotFound
	if errors.As(err, &notFound) {
		fail(c, http.StatusNotFound, "not_found", err.Error())
		return
	}

	var validErr *config.ValidationError
	if errors.As(err, &validErr) {
		fail(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	var provErr *providers.Error
	if errors.As(err, &provErr) {
		switch provErr.Kind {
		case providers.KindConfig:
			fail(c, http.StatusServiceUnavailable, "config", err.Error())
		case providers.KindQuota:
			fail(c, http.StatusTooManyRequests, "quota", err.Error())
		case providers.KindValidation:
			fail(c, http.StatusBadRequest, "validation", err.Error())
		case providers.KindUnavailable:
			fail(c, http.StatusServiceUnavailable, "unavailable", err.Error())
		case providers.KindCancelled:
			fail(c, http.StatusRequestTimeout, "cancelled", err.Error())
		case providers.KindConsistency:
			fail(c, http.StatusConflict, "consistency", err.Error())
		case providers.KindPermanent:
			fail(c, http.StatusBadGateway, "permanent", err.Error())
		default:
			fail(c, http.StatusBadGateway, "transient", err.Error())
		}
		return
	}

	slog.Error("unexpected api error", "error", err)
	fail(c, http.StatusInternalServerError, "internal", "internal server error")
}

// badRequest writes a validation-kind envelope for a request the handler
// itself rejected (bad JSON, missing required field) before any domain call
// was made.
func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "validation", message)
}
