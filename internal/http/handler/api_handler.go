package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/linktrail/linktrail/internal/app/repository"
	"github.com/linktrail/linktrail/internal/app/service"
	infraprom "github.com/linktrail/linktrail/internal/infra/prometheus"
	"go.uber.org/zap"
)

// defaultUserID stands in for an authenticated owner until the demo login
// flow is replaced by real auth.
const defaultUserID = "anonymous"

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Clicks      service.ClickRecorder
	Metrics     *infraprom.Metrics
	BaseURL     string
	// CreateLimiter throttles link creation; optional.
	CreateLimiter fiber.Handler
}

// APIHandler implements the management and tracking API endpoints.
type APIHandler struct {
	logger        *zap.Logger
	linkService   service.LinkService
	clicks        service.ClickRecorder
	metrics       *infraprom.Metrics
	baseURL       string
	createLimiter fiber.Handler
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:        logger,
		linkService:   deps.LinkService,
		clicks:        deps.Clicks,
		metrics:       deps.Metrics,
		baseURL:       deps.BaseURL,
		createLimiter: deps.CreateLimiter,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		links := api.Group("/links")
		{
			if h.createLimiter != nil {
				links.Post("/", h.createLimiter, h.CreateLink)
			} else {
				links.Post("/", h.CreateLink)
			}
			links.Get("/", h.ListLinks)
			links.Get("/:id/analytics", h.Analytics)
			links.Delete("/:id", h.DeleteLink)
		}
		api.Post("/track-click", h.TrackClick)
		api.Get("/stats", h.Stats)
	}
}

// Health is a simple root endpoint so we know the service is running.
func (h *APIHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "LinkTrail",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	Expiration  string `json:"expiration,omitempty"`
}

// LinkResponse represents a link in API responses.
type LinkResponse struct {
	ID           int64      `json:"id"`
	OriginalURL  string     `json:"originalUrl"`
	ShortURL     string     `json:"shortUrl"`
	ShortCode    string     `json:"shortCode"`
	CustomAlias  string     `json:"customAlias,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	IsActive     bool       `json:"isActive"`
	ClickCount   *int64     `json:"clickCount,omitempty"`
	RecentClicks *int64     `json:"recentClicks,omitempty"`
}

func (h *APIHandler) linkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortURL:    h.baseURL + "/" + link.ShortCode,
		ShortCode:   link.ShortCode,
		CustomAlias: link.CustomAlias,
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
		IsActive:    link.IsActive,
	}
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.linkService.CreateLink(requestContext(c), service.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		Expiration:  req.Expiration,
		UserID:      defaultUserID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) ||
			errors.Is(err, service.ErrAliasTaken) ||
			errors.Is(err, service.ErrInvalidExpiration) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to create link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}

	if h.metrics != nil {
		h.metrics.LinksCreated.Inc()
	}
	return c.Status(fiber.StatusCreated).JSON(h.linkResponse(link))
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.linkService.ListLinks(requestContext(c), defaultUserID)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list links",
		})
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		entry := h.linkResponse(&links[i].Link)
		entry.ClickCount = &links[i].ClickCount
		entry.RecentClicks = &links[i].RecentClicks
		response[i] = entry
	}
	return c.JSON(response)
}

// Analytics handles GET /api/links/:id/analytics
func (h *APIHandler) Analytics(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "link not found",
		})
	}

	analytics, err := h.linkService.Analytics(requestContext(c), id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to load analytics", zap.Error(err), zap.Int64("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"link":         h.linkResponse(analytics.Link),
		"totalClicks":  analytics.TotalClicks,
		"recentClicks": analytics.RecentClicks,
		"clicks":       analytics.Clicks,
	})
}

// TrackClickRequest is the telemetry submission from the interstitial page.
type TrackClickRequest struct {
	LinkID int64 `json:"linkId"`
	service.Telemetry
}

// TrackClick handles POST /api/track-click. Recording failures respond 500
// but never affect the client's navigation, which proceeds regardless.
func (h *APIHandler) TrackClick(c *fiber.Ctx) error {
	var req TrackClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.LinkID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "linkId is required",
		})
	}

	_, err := h.clicks.Record(requestContext(c), service.ClickInput{
		LinkID:         req.LinkID,
		IPAddress:      c.IP(),
		UserAgent:      c.Get(fiber.HeaderUserAgent),
		AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
		Referrer:       c.Get(fiber.HeaderReferer),
		Telemetry:      req.Telemetry,
	})
	if err != nil {
		h.logger.Error("failed to record click", zap.Error(err), zap.Int64("link_id", req.LinkID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to track click",
		})
	}

	if h.metrics != nil {
		h.metrics.ClicksRecorded.Inc()
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeleteLink handles DELETE /api/links/:id
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "link not found",
		})
	}

	if err := h.linkService.DeleteLink(requestContext(c), id); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to delete link", zap.Error(err), zap.Int64("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.JSON(fiber.Map{"message": "Link deleted successfully"})
}

// Stats handles GET /api/stats
func (h *APIHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.linkService.Stats(requestContext(c), defaultUserID)
	if err != nil {
		h.logger.Error("failed to load stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"totalLinks":  stats.TotalLinks,
		"totalClicks": stats.TotalClicks,
		"todayClicks": stats.TodayClicks,
		"ctr":         stats.CTR,
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
