package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  metrics.app  ": "metrics.app",
		"..foo..":         "foo",
		".":               "",
		"":                "",
	}

	for input, want := range tests {
		assert.Equal(t, want, sanitizePrefix(input), "input %q", input)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" listing/load ": "listing_load",
		"foo..bar":       "foo.bar",
		"multi  space":   "multi__space",
		"":               "",
	}

	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), "input %q", input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, formatTags(nil))
	assert.Equal(t,
		[]string{"op:load", "result:success"},
		formatTags(map[string]string{"result": " success ", " op ": "load", "": "dropped"}),
	)
}

func TestDisabledClientIsNoop(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	c.Count("listing.load", 1, nil)
	c.Gauge("listing.results", 3, nil)
	c.Timing("listing.duration", time.Second, nil)
	require.NoError(t, c.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Count("x", 1, nil)
	require.NoError(t, nilClient.Close())
}

func TestClientEmitsDogStatsD(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(Config{
		Enabled:       true,
		Address:       pc.LocalAddr().String(),
		Prefix:        "productadmin",
		GlobalTags:    map[string]string{"env": "test"},
		FlushInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.True(t, c.Enabled())

	c.Count("listing.load", 1, map[string]string{"result": "success"})
	require.NoError(t, c.Close())

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	var found string
	for found == "" {
		n, _, readErr := pc.ReadFrom(buf)
		require.NoError(t, readErr)
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if strings.HasPrefix(line, "productadmin.listing.load:1|c") {
				found = line
			}
		}
	}

	assert.Contains(t, found, "env:test")
	assert.Contains(t, found, "result:success")
}
