package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		device  string
		browser string
	}{
		{
			name:    "iPhone Safari",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
			device:  DeviceIPhone,
			browser: BrowserSafari,
		},
		{
			name:    "iPad Safari",
			ua:      "Mozilla/5.0 (iPad; CPU OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
			device:  DeviceIPad,
			browser: BrowserSafari,
		},
		{
			name:    "Android Chrome",
			ua:      "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36",
			device:  DeviceAndroid,
			browser: BrowserChrome,
		},
		{
			name:    "Android Samsung Browser",
			ua:      "Mozilla/5.0 (Linux; Android 13; SAMSUNG SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) SamsungBrowser/21.0 Chrome/110.0.5481.154 Mobile Safari/537.36",
			device:  DeviceAndroid,
			browser: BrowserSamsung,
		},
		{
			name:    "macOS Chrome beats Safari token",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
			device:  DeviceMacOS,
			browser: BrowserChrome,
		},
		{
			name:    "macOS Safari",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
			device:  DeviceMacOS,
			browser: BrowserSafari,
		},
		{
			name:    "Windows Firefox",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:114.0) Gecko/20100101 Firefox/114.0",
			device:  DeviceWindows,
			browser: BrowserFirefox,
		},
		{
			name:    "Windows Edge beats Chrome token",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36 Edg/114.0.1823.43",
			device:  DeviceWindows,
			browser: BrowserEdge,
		},
		{
			name:    "Windows Internet Explorer 11",
			ua:      "Mozilla/5.0 (Windows NT 10.0; WOW64; Trident/7.0; rv:11.0) like Gecko",
			device:  DeviceWindows,
			browser: BrowserIE,
		},
		{
			name:    "Linux Chrome",
			ua:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
			device:  DeviceLinux,
			browser: BrowserChrome,
		},
		{
			name:    "iPhone Chrome on iOS",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/114.0.5735.99 Mobile/15E148 Safari/604.1",
			device:  DeviceIPhone,
			browser: BrowserChrome,
		},
		{
			name:    "unrecognized string",
			ua:      "curl/8.1.2",
			device:  Unknown,
			browser: Unknown,
		},
		{
			name:    "empty string",
			ua:      "",
			device:  Unknown,
			browser: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := Detect(tt.ua)
			assert.Equal(t, tt.device, fp.Device)
			assert.Equal(t, tt.browser, fp.Browser)
			assert.Equal(t, tt.ua, fp.UserAgent)
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	first := Detect(ua)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Detect(ua))
	}
}
