package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irrigation-status-backend/internal/controller"
)

func seedStations(t *testing.T, env *testEnv, ids ...int) {
	batch := make([]controller.StationStatus, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, controller.StationStatus{Station: id, Status: "off"})
	}
	require.NoError(t, env.store.UpsertStations(context.Background(), batch))
}

func subscribedStations(t *testing.T, env *testEnv, endpoint string) (int, []int64) {
	w := env.do("GET", "/api/subscriptions?endpoint="+endpoint, "")
	if w.Code != http.StatusOK {
		return w.Code, nil
	}
	var body struct {
		SubscribedStations []int64 `json:"subscribed_stations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.SubscribedStations
}

var pushOptions = &webpush.Options{VAPIDPublicKey: "public", VAPIDPrivateKey: "private"}

func TestPutSubscription(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		env := newTestEnv(t, pushOptions)

		w := env.do("PUT", "/api/subscriptions", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
	})

	t.Run("push disabled", func(t *testing.T) {
		env := newTestEnv(t, nil)

		w := env.do("PUT", "/api/subscriptions", `{"endpoint":"e","p256dh":"k","auth":"a"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t, pushOptions)
	seedStations(t, env, 1, 2, 3)
	endpoint := "https://push.example.com/send/abc123"

	w := env.do("PUT", "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"key","auth":"secret","subscribed_stations":[1,2]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	code, stations := subscribedStations(t, env, endpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []int64{1, 2}, stations)

	// Re-subscribing replaces the station set; unknown stations are ignored.
	w = env.do("PUT", "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"key2","auth":"secret2","subscribed_stations":[3,99]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	code, stations = subscribedStations(t, env, endpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{3}, stations)

	w = env.do("DELETE", "/api/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	code, _ = subscribedStations(t, env, endpoint)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/api/subscriptions", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, nil)

		w := env.do("GET", "/api/vapid_public_key", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("public key only", func(t *testing.T) {
		env := newTestEnv(t, &webpush.Options{VAPIDPublicKey: "public"})

		w := env.do("GET", "/api/vapid_public_key", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("configured", func(t *testing.T) {
		env := newTestEnv(t, pushOptions)

		w := env.do("GET", "/api/vapid_public_key", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"public"}`, w.Body.String())
	})
}
