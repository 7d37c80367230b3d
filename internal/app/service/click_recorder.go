package service

import (
	"context"
	"fmt"

	"github.com/linktrail/linktrail/internal/app/device"
	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/linktrail/linktrail/internal/app/repository"
	"github.com/linktrail/linktrail/internal/infra/geoip"
	"go.uber.org/zap"
)

// OriginResolver maps a client IP to coarse location facts. Satisfied by
// *geoip.Resolver.
type OriginResolver interface {
	Resolve(ctx context.Context, ip string) geoip.Location
}

// Telemetry is the client-reported payload collected by the interstitial
// page. Every field is optional; absent values become sentinels during merge.
type Telemetry struct {
	ScreenResolution string `json:"screenResolution"`
	ViewportSize     string `json:"viewportSize"`
	DevicePixelRatio string `json:"devicePixelRatio"`
	ColorDepth       string `json:"colorDepth"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
	Platform         string `json:"platform"`
	CPUCores         string `json:"cpuCores"`
	DeviceMemory     string `json:"deviceMemory"`
	ConnectionType   string `json:"connectionType"`
	NetworkSpeed     string `json:"networkSpeed"`
	Latitude         string `json:"latitude"`
	Longitude        string `json:"longitude"`
	Accuracy         string `json:"accuracy"`
	BatteryLevel     string `json:"batteryLevel"`
	IsCharging       bool   `json:"isCharging"`
	Orientation      string `json:"orientation"`
	TouchSupport     bool   `json:"touchSupport"`
	CookiesEnabled   bool   `json:"cookiesEnabled"`
	JavaScriptOn     bool   `json:"javaScriptEnabled"`
	DoNotTrack       bool   `json:"doNotTrack"`
	SessionID        string `json:"sessionId"`
}

// ClickInput combines server-observed request facts with the client payload.
type ClickInput struct {
	LinkID         int64
	IPAddress      string
	UserAgent      string
	AcceptLanguage string
	Referrer       string
	Telemetry      Telemetry
}

// ClickRecorder builds one normalized Click from a tracking submission and
// persists it.
type ClickRecorder interface {
	Record(ctx context.Context, input ClickInput) (*model.Click, error)
}

type clickRecorder struct {
	store     repository.Store
	origins   OriginResolver
	publisher *ClickPublisher
	logger    *zap.Logger
}

// NewClickRecorder wires the recorder. The publisher is optional; when nil,
// fan-out is skipped.
func NewClickRecorder(store repository.Store, origins OriginResolver, publisher *ClickPublisher, logger *zap.Logger) ClickRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &clickRecorder{
		store:     store,
		origins:   origins,
		publisher: publisher,
		logger:    logger,
	}
}

// Record merges classifier output, exactly one origin lookup, and the client
// payload into a Click and persists it. Server-derived device facts win over
// anything client-reported; language falls back to the Accept-Language
// primary tag; everything else defaults to its sentinel.
func (r *clickRecorder) Record(ctx context.Context, input ClickInput) (*model.Click, error) {
	info := device.Classify(input.UserAgent)
	location := r.origins.Resolve(ctx, input.IPAddress)
	t := input.Telemetry

	language := t.Language
	if language == "" {
		language = device.PrimaryLanguage(input.AcceptLanguage)
	}

	click := &model.Click{
		LinkID: input.LinkID,

		IPAddress:      orUnknown(input.IPAddress),
		ISP:            location.ISP,
		Country:        location.Country,
		City:           location.City,
		Region:         location.Region,
		ConnectionType: orUnknown(t.ConnectionType),
		NetworkSpeed:   orUnknown(t.NetworkSpeed),

		DeviceType:      info.DeviceType,
		DeviceModel:     device.Model(input.UserAgent),
		OperatingSystem: info.OperatingSystem,
		Platform:        firstNonEmpty(t.Platform, info.OperatingSystem),
		CPUCores:        orUnknown(t.CPUCores),
		DeviceMemory:    orUnknown(t.DeviceMemory),

		ScreenResolution: orUnknown(t.ScreenResolution),
		ViewportSize:     orUnknown(t.ViewportSize),
		DevicePixelRatio: orUnknown(t.DevicePixelRatio),
		ColorDepth:       orUnknown(t.ColorDepth),
		Orientation:      orUnknown(t.Orientation),

		Browser:        info.Browser,
		BrowserVersion: info.BrowserVersion,
		UserAgent:      orUnknown(input.UserAgent),
		Language:       language,
		Timezone:       orUnknown(t.Timezone),
		Referrer:       orUnknown(input.Referrer),

		TouchSupport:      t.TouchSupport,
		CookiesEnabled:    t.CookiesEnabled,
		JavaScriptEnabled: t.JavaScriptOn,
		DoNotTrack:        t.DoNotTrack,

		SessionID: t.SessionID,
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
		Accuracy:  t.Accuracy,

		BatteryLevel: orUnknown(t.BatteryLevel),
		IsCharging:   t.IsCharging,
	}

	if err := r.store.RecordClick(ctx, click); err != nil {
		return nil, fmt.Errorf("record click: %w", err)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(click); err != nil {
			r.logger.Warn("click fan-out failed",
				zap.Int64("link_id", click.LinkID), zap.Error(err))
		}
	}
	return click, nil
}

func orUnknown(value string) string {
	if value == "" {
		return model.Unknown
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return model.Unknown
}
