package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(status Status, msg string) Check {
	return func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: status, Message: msg}
	}
}

func TestRunWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("index", check(StatusUp, "3 documents"))
	c.Register("cache", check(StatusDegraded, "redis unreachable"))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Len(t, report.Components, 2)
	assert.Equal(t, "3 documents", report.Components["index"].Message)
	assert.NotEmpty(t, report.Components["index"].Latency)

	c.Register("index", check(StatusDown, "no index"))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		status Status
		code   int
	}{
		{StatusUp, http.StatusOK},
		{StatusDegraded, http.StatusOK},
		{StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := NewChecker()
			c.Register("index", check(tt.status, ""))

			rec := httptest.NewRecorder()
			c.ReadyHandler()(rec, httptest.NewRequest("GET", "/health/ready", nil))

			assert.Equal(t, tt.code, rec.Code)
			var report Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.status, report.Status)
		})
	}
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest("GET", "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
