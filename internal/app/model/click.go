package model

import "time"

// Unknown is the sentinel recorded for optional telemetry fields that the
// client or the server could not determine. Downstream aggregation compares
// against this single value instead of null-checking.
const Unknown = "unknown"

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.recorded"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// Click is one recorded visit to a link. Every field other than LinkID and
// ClickedAt is optional telemetry: strings default to the Unknown sentinel,
// booleans to false, and coordinate/session fields to the empty string.
type Click struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	LinkID    int64     `json:"linkId" gorm:"index;not null"`
	ClickedAt time.Time `json:"clickedAt" gorm:"index;autoCreateTime"`

	// Network
	IPAddress      string `json:"ipAddress" gorm:"size:64"`
	ISP            string `json:"isp" gorm:"size:128"`
	Country        string `json:"country" gorm:"size:64"`
	City           string `json:"city" gorm:"size:64"`
	Region         string `json:"region" gorm:"size:64"`
	ConnectionType string `json:"connectionType" gorm:"size:32"`
	NetworkSpeed   string `json:"networkSpeed" gorm:"size:32"`

	// Device
	DeviceType      string `json:"deviceType" gorm:"size:16"`
	DeviceModel     string `json:"deviceModel" gorm:"size:64"`
	OperatingSystem string `json:"operatingSystem" gorm:"size:32"`
	Platform        string `json:"platform" gorm:"size:64"`
	CPUCores        string `json:"cpuCores" gorm:"size:8"`
	DeviceMemory    string `json:"deviceMemory" gorm:"size:8"`

	// Display
	ScreenResolution string `json:"screenResolution" gorm:"size:16"`
	ViewportSize     string `json:"viewportSize" gorm:"size:16"`
	DevicePixelRatio string `json:"devicePixelRatio" gorm:"size:8"`
	ColorDepth       string `json:"colorDepth" gorm:"size:8"`
	Orientation      string `json:"orientation" gorm:"size:32"`

	// Browser
	Browser        string `json:"browser" gorm:"size:32"`
	BrowserVersion string `json:"browserVersion" gorm:"size:16"`
	UserAgent      string `json:"userAgent" gorm:"size:512"`
	Language       string `json:"language" gorm:"size:16"`
	Timezone       string `json:"timezone" gorm:"size:64"`
	Referrer       string `json:"referrer" gorm:"size:512"`

	// Privacy / consent
	TouchSupport      bool `json:"touchSupport"`
	CookiesEnabled    bool `json:"cookiesEnabled"`
	JavaScriptEnabled bool `json:"javaScriptEnabled"`
	DoNotTrack        bool `json:"doNotTrack"`

	// Session correlation and GPS; empty when not reported.
	SessionID string `json:"sessionId" gorm:"size:64"`
	Latitude  string `json:"latitude" gorm:"size:32"`
	Longitude string `json:"longitude" gorm:"size:32"`
	Accuracy  string `json:"accuracy" gorm:"size:32"`

	// IsCharging pairs with BatteryLevel.
	BatteryLevel string `json:"batteryLevel" gorm:"size:8"`
	IsCharging   bool   `json:"isCharging"`
}
