package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthURL(t *testing.T) {
	url, err := healthURL(":8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/-/healthy", url)

	url, err = healthURL("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/-/healthy", url)

	_, err = healthURL("8080")
	require.Error(t, err)
}

func TestCheckHealthy(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	require.NoError(t, checkHealthy(context.Background(), srv.URL))

	status = http.StatusServiceUnavailable
	err := checkHealthy(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
