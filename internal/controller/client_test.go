package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
)

var testNow = time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(config.ControllerConfig{
		URL:     server.URL,
		Headers: map[string]string{"X-Test": "yes"},
	}, clock.NewFixed(testNow))
	require.NoError(t, err)
	return c
}

func TestClient_FetchLog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/log.json", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("date"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Write([]byte(`[
			{"station":1,"start":"09:55:00","duration":"00:30:00","date":"2024-06-01","program":3,"program_name":"Zone A","active":true},
			{"station":2,"start":"12:00:00","duration":"00:10:00","program":"4","program_name":"Beds","manual":true,"blocked":"rain delay"}
		]`))
	})

	entries, err := c.FetchLog(context.Background(), "2024-06-01")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	id, err := entries[0].ProgramID()
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.True(t, entries[0].HasRun())
	assert.False(t, entries[0].IsManual())
	assert.Equal(t, "", entries[0].BlockReason())

	id, err = entries[1].ProgramID()
	require.NoError(t, err)
	assert.Equal(t, 4, id)
	assert.False(t, entries[1].HasRun())
	assert.True(t, entries[1].IsManual())
	assert.Equal(t, "rain delay", entries[1].BlockReason())
}

func TestClient_FetchLogCachesPastDatesOnly(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	_, err := c.FetchLog(ctx, "2024-05-31")
	require.NoError(t, err)
	_, err = c.FetchLog(ctx, "2024-05-31")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "past dates are served from cache")

	_, err = c.FetchLog(ctx, "2024-06-01")
	require.NoError(t, err)
	_, err = c.FetchLog(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "today is always fetched")
}

func TestClient_FetchStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status.json", r.URL.Path)
		json.NewEncoder(w).Encode([]StationStatus{{Station: 1, Status: "on", Reason: "program", Remaining: 125}})
	})

	statuses, err := c.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []StationStatus{{Station: 1, Status: "on", Reason: "program", Remaining: 125}}, statuses)
}

func TestClient_Errors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.FetchStatus(context.Background())
		assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	})

	t.Run("bad json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"a list"`))
		})
		_, err := c.FetchLog(context.Background(), "2024-06-01")
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("unreachable", func(t *testing.T) {
		c, err := NewClient(config.ControllerConfig{URL: "http://127.0.0.1:1", TimeoutSeconds: 1}, clock.NewFixed(testNow))
		require.NoError(t, err)
		_, err = c.FetchStatus(context.Background())
		assert.Error(t, err)
	})
}

func TestClient_Action(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/action", r.URL.Path)
		query = r.URL.RawQuery
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	a, err := ManualRun(2, 5, 30)
	require.NoError(t, err)
	require.NoError(t, c.Action(context.Background(), a))
	assert.Equal(t, "set_time=330&set_to=1&sid=2", query)

	assert.ErrorIs(t, c.Action(context.Background(), Action{}), ErrEmptyAction)
}

func TestProgramID_Invalid(t *testing.T) {
	for _, raw := range []string{``, `null`, `"abc"`, `1.5`, `{}`} {
		_, err := LogEntry{Program: json.RawMessage(raw)}.ProgramID()
		assert.Error(t, err, "program %q", raw)
	}
}
