package device

import (
	"testing"

	"github.com/linktrail/linktrail/internal/app/model"
)

const (
	uaEdgeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	uaChromeMac   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaSafariPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
	uaChromePixel = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.43 Mobile Safari/537.36"
	uaFirefoxX11  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaOperaLegacy = "Opera/9.80 (Windows NT 6.1) Presto/2.12.388 Version/12.16"
	uaPadNoMobile = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko)"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      Info
	}{
		{
			name:      "edge wins over its chrome compatibility token",
			userAgent: uaEdgeWindows,
			want:      Info{DeviceType: "desktop", OperatingSystem: "Windows 10", Browser: "Microsoft Edge", BrowserVersion: "120.0"},
		},
		{
			name:      "chrome on macos",
			userAgent: uaChromeMac,
			want:      Info{DeviceType: "desktop", OperatingSystem: "macOS 10.15", Browser: "Chrome", BrowserVersion: "120.0"},
		},
		{
			name:      "safari on iphone",
			userAgent: uaSafariPhone,
			want:      Info{DeviceType: "mobile", OperatingSystem: "iOS 17.5", Browser: "Safari", BrowserVersion: "17.5"},
		},
		{
			name:      "chrome on android",
			userAgent: uaChromePixel,
			want:      Info{DeviceType: "mobile", OperatingSystem: "Android 14", Browser: "Chrome", BrowserVersion: "120.0"},
		},
		{
			name:      "firefox on linux",
			userAgent: uaFirefoxX11,
			want:      Info{DeviceType: "desktop", OperatingSystem: "Linux", Browser: "Firefox", BrowserVersion: "121.0"},
		},
		{
			name:      "presto era opera",
			userAgent: uaOperaLegacy,
			want:      Info{DeviceType: "desktop", OperatingSystem: "Windows 7", Browser: "Opera", BrowserVersion: "9.80"},
		},
		{
			name:      "ipad without mobile token is a tablet",
			userAgent: uaPadNoMobile,
			want:      Info{DeviceType: "tablet", OperatingSystem: "iOS 16.6", Browser: model.Unknown, BrowserVersion: model.Unknown},
		},
		{
			name:      "empty input yields sentinels",
			userAgent: "",
			want:      Info{DeviceType: model.Unknown, OperatingSystem: model.Unknown, Browser: model.Unknown, BrowserVersion: model.Unknown},
		},
		{
			name:      "unrecognized input still gets a device type",
			userAgent: "curl/8.4.0",
			want:      Info{DeviceType: "desktop", OperatingSystem: model.Unknown, Browser: model.Unknown, BrowserVersion: model.Unknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.userAgent)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestClassify_WindowsVersions(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"Windows NT 10.0", "Windows 10"},
		{"Windows NT 6.3", "Windows 8.1"},
		{"Windows NT 6.2", "Windows 8"},
		{"Windows NT 6.1", "Windows 7"},
		{"Windows NT 5.1", "Windows"},
	}
	for _, tt := range tests {
		ua := "Mozilla/5.0 (" + tt.token + ") AppleWebKit/537.36"
		if got := Classify(ua).OperatingSystem; got != tt.want {
			t.Errorf("Classify(%q).OperatingSystem = %q, want %q", ua, got, tt.want)
		}
	}
}

func TestModel(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"iphone with hardware id", "Mozilla/5.0 (iPhone15,2; CPU iPhone OS 16_0 like Mac OS X)", "iPhone 15,2"},
		{"iphone without hardware id", uaSafariPhone, "iPhone"},
		{"ipad", uaPadNoMobile, "iPad"},
		{"android second token", uaChromePixel, "Android 14"},
		{"android without parenthetical", "Android", "Android Device"},
		{"desktop has no model", uaChromeMac, model.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Model(tt.userAgent); got != tt.want {
				t.Fatalf("Model(%q) = %q, want %q", tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestPrimaryLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"en-US,en;q=0.9,de;q=0.8", "en-US"},
		{"fr", "fr"},
		{"pt-BR;q=0.7", "pt-BR"},
		{" es-ES , es", "es-ES"},
		{"", model.Unknown},
	}
	for _, tt := range tests {
		if got := PrimaryLanguage(tt.header); got != tt.want {
			t.Errorf("PrimaryLanguage(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
