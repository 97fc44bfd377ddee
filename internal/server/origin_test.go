package server

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://localhost:8080", "http://localhost:8080", true},
		{"HTTPS://Example.COM", "https://example.com", true},
		{"https://example.com/path?q=1", "https://example.com", true},
		{"not-a-url", "", false},
		{"://missing-scheme", "", false},
		{"http://", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeOrigin(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{" http://localhost:8080 ", "", "bogus"}, discardLogger())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:8080", true},
		{"HTTP://LOCALHOST:8080", true},
		{"http://localhost:3000", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.allowed, policy.checkOrigin(req), "origin %q", tt.origin)
	}

	assert.True(t, policy.allowsOrigin("http://localhost:8080"))
	assert.False(t, policy.allowsOrigin("https://evil.example"))
}

func TestOriginPolicyWildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"}, discardLogger())

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://anything.example.net")
	assert.True(t, policy.isAllowed(req))

	req.Header.Del("Origin")
	assert.False(t, policy.isAllowed(req), "a missing Origin is rejected even with a wildcard")

	assert.True(t, policy.allowsOrigin("https://anything.example.net"))
	assert.False(t, policy.allowsOrigin("garbage"))
}

func TestOriginPolicyWithoutValidOriginsRefusesAll(t *testing.T) {
	policy := newOriginPolicy([]string{"not-a-url"}, discardLogger())

	assert.False(t, policy.allowsOrigin("https://evil.example"))
	assert.False(t, policy.allowsOrigin("http://localhost:8080"))
}
