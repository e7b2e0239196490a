package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/metrics"
	"github.com/snaplink/snaplink/internal/service"
)

type RedirectHandler struct {
	svc    *service.LinkService
	logger *zap.Logger
}

func NewRedirectHandler(svc *service.LinkService) *RedirectHandler {
	return &RedirectHandler{
		svc:    svc,
		logger: zap.L().With(zap.String("component", "RedirectHandler")),
	}
}

// Redirect resolves a short code to the original URL and answers 302
// with a Location header. The redirect counter is incremented as a side
// effect of resolution.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	code := strings.TrimSpace(c.Param("shortCode"))

	originalURL, err := h.svc.Resolve(c.Request.Context(), code)
	if err != nil {
		metrics.RedirectTotal.WithLabelValues("miss").Inc()
		handleError(c, err)
		return
	}

	metrics.RedirectTotal.WithLabelValues("hit").Inc()
	h.logger.Debug("Redirecting", zap.String("short_code", code))
	c.Redirect(http.StatusFound, originalURL)
}
