package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4567"

	assert.Equal(t, "203.0.113.7", ExtractClientIP(req, nil))
}

func TestExtractClientIP_UntrustedProxyHeadersIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4567"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	assert.Equal(t, "203.0.113.7", ExtractClientIP(req, nil))
}

func TestExtractClientIP_TrustedProxyForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:4567"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2")

	assert.Equal(t, "198.51.100.1", ExtractClientIP(req, []string{"10.0.0.0/8"}))
}

func TestExtractClientIP_TrustedProxyRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:4567"
	req.Header.Set("X-Real-IP", "198.51.100.2")

	assert.Equal(t, "198.51.100.2", ExtractClientIP(req, []string{"10.0.0.0/8"}))
}
