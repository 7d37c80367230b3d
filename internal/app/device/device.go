// Package device classifies raw User-Agent strings into coarse device,
// OS and browser facts. Classification is total: any input, including the
// empty string, yields a fully populated result with "unknown" sentinels
// for whatever could not be determined.
package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/linktrail/linktrail/internal/app/model"
)

// Info is the classifier output for one User-Agent string.
type Info struct {
	DeviceType      string
	OperatingSystem string
	Browser         string
	BrowserVersion  string
}

var (
	mobileRe = regexp.MustCompile(`(?i)mobile|android|iphone|ipod|blackberry|iemobile|opera mini`)
	tabletRe = regexp.MustCompile(`(?i)ipad|tablet|playbook|silk`)

	iosVersionRe     = regexp.MustCompile(`os (\d+)_(\d+)`)
	androidVersionRe = regexp.MustCompile(`android (\d+\.?\d*)`)
	macVersionRe     = regexp.MustCompile(`mac os x (\d+)[._](\d+)`)

	edgeRe    = regexp.MustCompile(`edg/(\d+\.?\d*)`)
	chromeRe  = regexp.MustCompile(`chrome/(\d+\.?\d*)`)
	firefoxRe = regexp.MustCompile(`firefox/(\d+\.?\d*)`)
	safariRe  = regexp.MustCompile(`version/(\d+\.?\d*)`)
	operaRe   = regexp.MustCompile(`(?:opera|opr)/(\d+\.?\d*)`)

	iphoneModelRe   = regexp.MustCompile(`iPhone(\d+,\d+)`)
	androidParenRe  = regexp.MustCompile(`\(([^)]+)\)`)
)

// Classify parses a raw User-Agent string. The token checks are ordered:
// Edge before Chrome (Edge carries a Chrome compatibility token), Chrome
// before Safari, Safari only without a Chrome token, Opera last.
func Classify(userAgent string) Info {
	info := Info{
		DeviceType:      model.Unknown,
		OperatingSystem: model.Unknown,
		Browser:         model.Unknown,
		BrowserVersion:  model.Unknown,
	}
	if userAgent == "" {
		return info
	}

	ua := strings.ToLower(userAgent)

	info.DeviceType = "desktop"
	if mobileRe.MatchString(ua) {
		info.DeviceType = "mobile"
	} else if tabletRe.MatchString(ua) {
		info.DeviceType = "tablet"
	}

	info.OperatingSystem = classifyOS(ua)
	info.Browser, info.BrowserVersion = classifyBrowser(ua)
	return info
}

func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows nt"):
		switch {
		case strings.Contains(ua, "windows nt 10"):
			return "Windows 10"
		case strings.Contains(ua, "windows nt 6.3"):
			return "Windows 8.1"
		case strings.Contains(ua, "windows nt 6.2"):
			return "Windows 8"
		case strings.Contains(ua, "windows nt 6.1"):
			return "Windows 7"
		default:
			return "Windows"
		}
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		if m := iosVersionRe.FindStringSubmatch(ua); m != nil {
			return fmt.Sprintf("iOS %s.%s", m[1], m[2])
		}
		return "iOS"
	case strings.Contains(ua, "android"):
		if m := androidVersionRe.FindStringSubmatch(ua); m != nil {
			return "Android " + m[1]
		}
		return "Android"
	case strings.Contains(ua, "mac os x"):
		if m := macVersionRe.FindStringSubmatch(ua); m != nil {
			return fmt.Sprintf("macOS %s.%s", m[1], m[2])
		}
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	}
	return model.Unknown
}

func classifyBrowser(ua string) (browser, version string) {
	browser = model.Unknown
	version = model.Unknown

	switch {
	case strings.Contains(ua, "edg/"):
		browser = "Microsoft Edge"
		if m := edgeRe.FindStringSubmatch(ua); m != nil {
			version = m[1]
		}
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "chromium"):
		browser = "Chrome"
		if m := chromeRe.FindStringSubmatch(ua); m != nil {
			version = m[1]
		}
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
		if m := firefoxRe.FindStringSubmatch(ua); m != nil {
			version = m[1]
		}
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
		if m := safariRe.FindStringSubmatch(ua); m != nil {
			version = m[1]
		}
	case strings.Contains(ua, "opera"), strings.Contains(ua, "opr/"):
		browser = "Opera"
		if m := operaRe.FindStringSubmatch(ua); m != nil {
			version = m[1]
		}
	}
	return browser, version
}

// Model extracts a vendor-specific device model from the raw (case-preserved)
// User-Agent. Best effort and independent of Classify: an iPhone hardware
// identifier when present, the second semicolon-delimited token of an Android
// parenthetical block, else the unknown sentinel.
func Model(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "iPhone"):
		if m := iphoneModelRe.FindStringSubmatch(userAgent); m != nil {
			return "iPhone " + m[1]
		}
		return "iPhone"
	case strings.Contains(userAgent, "iPad"):
		return "iPad"
	case strings.Contains(userAgent, "Android"):
		if m := androidParenRe.FindStringSubmatch(userAgent); m != nil {
			parts := strings.Split(m[1], ";")
			if len(parts) > 1 {
				if token := strings.TrimSpace(parts[1]); token != "" {
					return token
				}
			}
		}
		return "Android Device"
	}
	return model.Unknown
}

// PrimaryLanguage extracts the highest-priority tag from an Accept-Language
// header value, or the unknown sentinel when the header is absent.
func PrimaryLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return model.Unknown
	}
	primary := strings.SplitN(acceptLanguage, ",", 2)[0]
	primary = strings.SplitN(primary, ";", 2)[0]
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return model.Unknown
	}
	return primary
}
