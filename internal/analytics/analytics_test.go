package analytics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequestNormalizesPlatform(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"iOS", "ios"},
		{" web ", "web"},
		{"desktop", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Platform", tc.header)
		assert.Equal(t, tc.want, FromRequest(r).Platform, "header %q", tc.header)
	}
}

func TestSourceEventKeyPrefersIdempotencyHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Idempotency-Key", "abc")
	r.Header.Set("X-Source-Event-Key", "fallback")
	assert.Equal(t, "abc", SourceEventKeyFromRequest(r))

	r.Header.Del("Idempotency-Key")
	assert.Equal(t, "fallback", SourceEventKeyFromRequest(r))
}

func TestLogWithoutSinkIsNoOp(t *testing.T) {
	err := Log(context.Background(), nil, Envelope{UserID: 1}, "dream_created", nil, "")
	assert.NoError(t, err)
}

func TestTierFromScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "P1"},
		{70, "P1"},
		{69.9, "P2"},
		{40, "P2"},
		{39.9, "P3"},
		{0, "P3"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFromScore(tc.score), "score %v", tc.score)
	}
}
