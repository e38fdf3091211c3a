// Package bypass identifies which bot-protection vendor served a block page
// on the direct HTTP path. A blocked search backend reads differently in the
// logs than a plain outage, and the vendor name tells the operator what they
// are up against.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the slice of an HTTP response the detectors need.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector inspects a response and names the vendor if it recognizes a
// challenge or block page.
type Detector func(Response) (vendor string, detected bool)

// Detectors returns the standard vendor detectors.
func Detectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Identify runs the response through every known detector and returns the
// first vendor that matches.
func Identify(res Response) (string, bool) {
	for _, d := range Detectors() {
		if vendor, ok := d(res); ok {
			return vendor, true
		}
	}
	return "", false
}

// detectCloudflare looks for common Cloudflare challenge and block signatures.
func detectCloudflare(res Response) (string, bool) {
	// Cloudflare challenges usually ride on 403 or 503.
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable {
		return "", false
	}
	if strings.Contains(strings.ToLower(res.Header.Get("Server")), "cloudflare") {
		return "Cloudflare", true
	}
	if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(res.Body, []byte("cloudflare-nginx")) ||
		bytes.Contains(res.Body, []byte("cf-turnstile")) ||
		bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
		return "Cloudflare", true
	}
	return "", false
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(res Response) (string, bool) {
	if res.StatusCode != http.StatusForbidden {
		return "", false
	}
	if strings.Contains(strings.ToLower(res.Header.Get("Server")), "akamai") {
		return "Akamai", true
	}
	// Akamai block pages carry a generic "Reference #" line.
	if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
		return "Akamai", true
	}
	return "", false
}

// detectDataDome looks for DataDome challenge and block signatures.
func detectDataDome(res Response) (string, bool) {
	if res.StatusCode != http.StatusForbidden {
		return "", false
	}
	if strings.Contains(strings.ToLower(res.Header.Get("Server")), "datadome") {
		return "DataDome", true
	}
	if res.Header.Get("X-DataDome") != "" || res.Header.Get("X-DataDome-Response") != "" {
		return "DataDome", true
	}
	if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(res.Body, []byte("datadome")) {
		return "DataDome", true
	}
	return "", false
}

// detectPerimeterX looks for PerimeterX (HUMAN) signatures.
func detectPerimeterX(res Response) (string, bool) {
	if res.StatusCode != http.StatusForbidden {
		return "", false
	}
	if res.Header.Get("X-Px-Captcha") != "" {
		return "PerimeterX", true
	}
	if bytes.Contains(res.Body, []byte("client.perimeterx.net")) ||
		bytes.Contains(res.Body, []byte("px-captcha")) ||
		bytes.Contains(res.Body, []byte("_pxBlock")) {
		return "PerimeterX", true
	}
	return "", false
}
