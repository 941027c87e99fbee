// Package fingerprint derives a coarse device/browser label from a raw
// user-agent string. Classification is ordered pattern matching against a
// closed set of labels; anything unrecognized maps to Unknown.
package fingerprint

import "strings"

// Device labels.
const (
	DeviceIPad    = "iPad"
	DeviceIPhone  = "iPhone"
	DeviceAndroid = "Android"
	DeviceMacOS   = "MacOS"
	DeviceWindows = "Windows"
	DeviceLinux   = "Linux"
	Unknown       = "Unknown"
)

// Browser labels.
const (
	BrowserFirefox = "Firefox"
	BrowserSamsung = "Samsung Browser"
	BrowserIE      = "Internet Explorer"
	BrowserEdge    = "Edge"
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
)

// Fingerprint is the result of classifying a user-agent string. The raw
// input is echoed back for diagnostics.
type Fingerprint struct {
	Device    string
	Browser   string
	UserAgent string
}

// Detect classifies a user-agent string. It is pure and deterministic; the
// same input always yields the same labels.
func Detect(userAgent string) Fingerprint {
	return Fingerprint{
		Device:    detectDevice(userAgent),
		Browser:   detectBrowser(userAgent),
		UserAgent: userAgent,
	}
}

// detectDevice evaluates device patterns in fixed priority order, first
// match wins.
func detectDevice(ua string) string {
	switch {
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPod"):
		if strings.Contains(ua, "iPad") {
			return DeviceIPad
		}
		return DeviceIPhone
	case strings.Contains(ua, "Android"):
		return DeviceAndroid
	case strings.Contains(ua, "Macintosh"), strings.Contains(ua, "Mac OS X"):
		return DeviceMacOS
	case strings.Contains(ua, "Windows"):
		return DeviceWindows
	case strings.Contains(ua, "Linux"):
		return DeviceLinux
	default:
		return Unknown
	}
}

// detectBrowser evaluates browser signatures in fixed priority order.
// Chrome must be checked before Safari: Chrome user agents also carry the
// Safari token. Edge likewise precedes Chrome.
func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Firefox/"):
		return BrowserFirefox
	case strings.Contains(ua, "SamsungBrowser/"):
		return BrowserSamsung
	case strings.Contains(ua, "MSIE"), strings.Contains(ua, "Trident/"):
		return BrowserIE
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"), strings.Contains(ua, "EdgA/"):
		return BrowserEdge
	case strings.Contains(ua, "Chrome/"), strings.Contains(ua, "CriOS/"):
		return BrowserChrome
	case strings.Contains(ua, "Safari/"):
		return BrowserSafari
	default:
		return Unknown
	}
}
