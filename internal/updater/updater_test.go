package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRelease = `{
  "tag_name": "v1.4.0",
  "body": "## Changelog\n* fix reconnect\n* add sniper stats",
  "assets": [
    {"name": "kraken-selfbot_1.4.0_windows_x86_64.zip", "browser_download_url": "https://example.com/win"},
    {"name": "kraken-selfbot_1.4.0_linux_x86_64.tar.gz", "browser_download_url": "https://example.com/linux"},
    {"name": "kraken-selfbot_1.4.0_linux_arm64.tar.gz", "browser_download_url": "https://example.com/linux-arm"}
  ]
}`

func TestParseRelease(t *testing.T) {
	rel, err := parseRelease([]byte(sampleRelease))
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", rel.tag)
	assert.Len(t, rel.assets, 3)

	url, changelog, err := rel.match("linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/linux", url)
	assert.Contains(t, changelog, "- fix reconnect")
	assert.NotContains(t, changelog, "## Changelog")

	url, _, err = rel.match("linux", "arm64")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/linux-arm", url)

	_, _, err = rel.match("darwin", "arm64")
	assert.ErrorIs(t, err, ErrNoRelease)
}

func TestParseReleaseErrors(t *testing.T) {
	_, err := parseRelease([]byte(`{`))
	assert.Error(t, err)

	_, err = parseRelease([]byte(`{"message": "API rate limit exceeded"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNewerVersion(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"v1.0.0", "v1.0.1", true},
		{"1.2.0", "v1.2.0", false},
		{"v2.0.0", "v1.9.9", false},
	}
	for _, tt := range tests {
		got, err := newerVersion(tt.current, tt.latest)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.current, tt.latest)
	}

	_, err := newerVersion("dev", "v1.0.0")
	assert.Error(t, err)
}

func TestNewerVersionAvailableDevBuild(t *testing.T) {
	ok, err := NewerVersionAvailable("v9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)
}
