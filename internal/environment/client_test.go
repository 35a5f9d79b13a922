package environment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"respiguard/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string) *Client {
	return NewClient(url, 2*time.Second, zap.NewNop()).SetRetryWait(time.Millisecond, 5*time.Millisecond)
}

func TestCurrent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/current", r.URL.Path)
		assert.Equal(t, "53.8", r.URL.Query().Get("lat"))
		assert.Equal(t, "-1.55", r.URL.Query().Get("lon"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aqi":155,"pollen":"high","locationName":"Leeds","temperature":12.5,"humidity":80,"pm25":41.2,"ozone":30,"so2":2,"no2":18}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).Current(context.Background(), 53.8, -1.55)
	require.NoError(t, err)
	assert.Equal(t, 155, snap.AQI)
	assert.Equal(t, "Unhealthy", snap.AQICategory)
	assert.Equal(t, scoring.PollenHigh, snap.Pollen)
	assert.Equal(t, "Leeds", snap.LocationName)
	assert.Equal(t, 41.2, snap.PM25)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestCurrent_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"aqi":40,"pollen":"Low","locationName":"Oslo"}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).Current(context.Background(), 59.9, 10.7)
	require.NoError(t, err)
	assert.Equal(t, "Good", snap.AQICategory)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCurrent_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Current(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCurrent_RejectsBadData(t *testing.T) {
	for _, body := range []string{
		`{"aqi":10,"pollen":"Extreme"}`,
		`{"aqi":-1,"pollen":"Low"}`,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))
		_, err := newTestClient(srv.URL).Current(context.Background(), 1, 1)
		assert.ErrorIs(t, err, scoring.ErrInvalidInput, body)
		srv.Close()
	}
}

func TestCurrent_InvalidCoordinates(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Current(context.Background(), 91, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coordinates")
}
