package system

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageLatency(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"url":"wss://gateway.discord.gg"}`))
	}))
	defer srv.Close()

	avg, err := averageLatency(srv.Client(), srv.URL, 3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, avg, 0.0)
	assert.Equal(t, 3, hits)

	_, err = averageLatency(srv.Client(), srv.URL, 0)
	assert.Error(t, err)
}

func TestDetermineOS(t *testing.T) {
	assert.Contains(t, []string{"windows", "linux", "darwin", "unknown"}, DetermineOS())
}
