package handler

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linktrail/linktrail/internal/app/codefilter"
	"github.com/linktrail/linktrail/internal/app/repository"
	infraprom "github.com/linktrail/linktrail/internal/infra/prometheus"
	"github.com/linktrail/linktrail/internal/http/view"
	"go.uber.org/zap"
)

// shortCodeRe is the candidate filter: alphanumeric plus hyphen, bounded
// length. Paths failing it are not short links and fall through.
var shortCodeRe = regexp.MustCompile(`^[a-zA-Z0-9-]{3,50}$`)

// RedirectDeps groups dependencies required by the redirect gateway.
type RedirectDeps struct {
	Logger  *zap.Logger
	Links   repository.Store
	Filter  *codefilter.Filter
	Metrics *infraprom.Metrics
}

// RedirectHandler intercepts requests that look like short codes and serves
// the telemetry interstitial, a gone page, or falls through to the router.
type RedirectHandler struct {
	logger  *zap.Logger
	links   repository.Store
	filter  *codefilter.Filter
	metrics *infraprom.Metrics
}

// NewRedirectHandler creates the gateway with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:  logger,
		links:   deps.Links,
		filter:  deps.Filter,
		metrics: deps.Metrics,
	}
}

// Register mounts the gateway ahead of the rest of the routes.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Use(h.Gateway)
}

// Gateway runs the short-link state machine over one inbound request.
func (h *RedirectHandler) Gateway(c *fiber.Ctx) error {
	path := c.Path()
	if c.Method() != fiber.MethodGet ||
		path == "/" || path == "/health" ||
		strings.HasPrefix(path, "/api") ||
		strings.Contains(path, ".") {
		return c.Next()
	}

	code := strings.TrimPrefix(path, "/")
	if !shortCodeRe.MatchString(code) {
		return c.Next()
	}
	// Definitive bloom miss: skip the store round trip entirely.
	if h.filter != nil && !h.filter.MightContain(code) {
		return c.Next()
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.links.LinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Next()
		}
		h.logger.Error("failed to load link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	if !link.IsActive {
		return c.Status(fiber.StatusGone).SendString("Link is no longer active")
	}
	if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
		return c.Status(fiber.StatusGone).SendString("Link has expired")
	}

	html, err := view.RenderTrackPage(view.TrackPageData{
		LinkID:         link.ID,
		DestinationURL: link.OriginalURL,
	})
	if err != nil {
		h.logger.Error("failed to render tracking page", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	if h.metrics != nil {
		h.metrics.InterstitialsServed.Inc()
	}
	h.logger.Debug("serving tracking interstitial",
		zap.String("code", code), zap.Int64("link_id", link.ID))

	return c.Type("html", "utf-8").SendString(html)
}
