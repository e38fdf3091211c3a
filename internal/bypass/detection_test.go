package bypass

import (
	"net/http"
	"testing"
)

func TestDetectCloudflare(t *testing.T) {
	// Not blocked
	res := Response{
		StatusCode: 200,
		Header:     http.Header{"Server": {"nginx"}},
		Body:       []byte("OK"),
	}
	if _, detected := detectCloudflare(res); detected {
		t.Errorf("expected not detected")
	}

	// CF Server header
	res = Response{
		StatusCode: 403,
		Header:     http.Header{"Server": {"cloudflare"}},
		Body:       []byte("Access Denied"),
	}
	if vendor, detected := detectCloudflare(res); !detected || vendor != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	// CF body signature
	res = Response{
		StatusCode: 503,
		Header:     http.Header{},
		Body:       []byte("<html>... cf-turnstile ...</html>"),
	}
	if vendor, detected := detectCloudflare(res); !detected || vendor != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestDetectAkamai(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"Server": {"AkamaiGHost"}},
	}
	if vendor, detected := detectAkamai(res); !detected || vendor != "Akamai" {
		t.Errorf("expected Akamai detection by header")
	}

	res = Response{
		StatusCode: 403,
		Header:     http.Header{},
		Body:       []byte("Access Denied... Reference #123.456"),
	}
	if vendor, detected := detectAkamai(res); !detected || vendor != "Akamai" {
		t.Errorf("expected Akamai detection by body")
	}
}

func TestDetectDataDome(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"X-Datadome": {"1"}},
	}
	if vendor, detected := detectDataDome(res); !detected || vendor != "DataDome" {
		t.Errorf("expected DataDome detection by header")
	}

	res = Response{
		StatusCode: 403,
		Header:     http.Header{},
		Body:       []byte("script src='https://geo.captcha-delivery.com/...'"),
	}
	if vendor, detected := detectDataDome(res); !detected || vendor != "DataDome" {
		t.Errorf("expected DataDome detection by body")
	}
}

func TestDetectPerimeterX(t *testing.T) {
	res := Response{
		StatusCode: 403,
		Header:     http.Header{"X-Px-Captcha": {"required"}},
	}
	if vendor, detected := detectPerimeterX(res); !detected || vendor != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by header")
	}

	res = Response{
		StatusCode: 403,
		Header:     http.Header{},
		Body:       []byte("window._pxBlock = true;"),
	}
	if vendor, detected := detectPerimeterX(res); !detected || vendor != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by body")
	}
}

func TestIdentify(t *testing.T) {
	vendor, detected := Identify(Response{
		StatusCode: 403,
		Header:     http.Header{"X-Datadome": {"1"}},
	})
	if !detected || vendor != "DataDome" {
		t.Errorf("Identify = %q, %v", vendor, detected)
	}

	vendor, detected = Identify(Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       []byte("hello"),
	})
	if detected || vendor != "" {
		t.Errorf("expected clean response to pass, got %q", vendor)
	}
}
