package ratelimiting_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amund211/fragstat/internal/ratelimiting"
	"github.com/stretchr/testify/require"
)

type mockedRateLimiter struct {
	consumeFunc func(key string) bool
}

func (m *mockedRateLimiter) Consume(key string) bool {
	return m.consumeFunc(key)
}

func TestTokenBucketRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst", func(t *testing.T) {
		t.Parallel()

		rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(0.001, 2)
		defer stop()

		require.True(t, rateLimiter.Consume("ip: 1.1.1.1"))
		require.True(t, rateLimiter.Consume("ip: 1.1.1.1"))
		require.False(t, rateLimiter.Consume("ip: 1.1.1.1"))

		// Keys have separate buckets
		require.True(t, rateLimiter.Consume("ip: 2.2.2.2"))
	})

	t.Run("refill", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping test in short mode")
		}
		t.Parallel()

		rateLimiter, stop := ratelimiting.NewTokenBucketRateLimiter(10, 1)
		defer stop()

		require.True(t, rateLimiter.Consume("key"))
		require.False(t, rateLimiter.Consume("key"))

		time.Sleep(150 * time.Millisecond)

		require.True(t, rateLimiter.Consume("key"))
		require.False(t, rateLimiter.Consume("key"))
	})
}

func TestIPKeyFunc(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		expectedKey  string
	}{
		{
			name:        "no port",
			remoteAddr:  "123.123.123.123",
			expectedKey: "ip: 123.123.123.123",
		},
		{
			name:        "with port",
			remoteAddr:  "123.123.123.123:58418",
			expectedKey: "ip: 123.123.123.123",
		},
		{
			name:        "ipv6 with port",
			remoteAddr:  "[2001:db8::1]:58418",
			expectedKey: "ip: 2001:db8::1",
		},
		{
			name:         "forwarded",
			remoteAddr:   "169.254.169.126:58418",
			forwardedFor: "12.12.123.123,34.111.7.239",
			expectedKey:  "ip: 12.12.123.123",
		},
		{
			name:         "forwarded single",
			remoteAddr:   "169.254.169.126:58418",
			forwardedFor: " 12.12.123.123 ",
			expectedKey:  "ip: 12.12.123.123",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			request := httptest.NewRequest(http.MethodGet, "/api/players", nil)
			request.RemoteAddr = c.remoteAddr
			if c.forwardedFor != "" {
				request.Header.Set("X-Forwarded-For", c.forwardedFor)
			}

			require.Equal(t, c.expectedKey, ratelimiting.IPKeyFunc(request))
		})
	}
}

func TestRequestBasedRateLimiter(t *testing.T) {
	t.Parallel()

	consumedKeys := []string{}
	rateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		&mockedRateLimiter{
			consumeFunc: func(key string) bool {
				consumedKeys = append(consumedKeys, key)
				return key == "ip: 1.1.1.1"
			},
		},
		ratelimiting.IPKeyFunc,
	)

	allowed := httptest.NewRequest(http.MethodGet, "/", nil)
	allowed.RemoteAddr = "1.1.1.1:1234"
	denied := httptest.NewRequest(http.MethodGet, "/", nil)
	denied.RemoteAddr = "2.2.2.2:1234"

	require.True(t, rateLimiter.Consume(allowed))
	require.False(t, rateLimiter.Consume(denied))
	require.Equal(t, "ip: 2.2.2.2", rateLimiter.KeyFor(denied))
	require.Equal(t, []string{"ip: 1.1.1.1", "ip: 2.2.2.2"}, consumedKeys)
}
