package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krishtopa13/planet-learn-languages/internal/services"
	"github.com/Krishtopa13/planet-learn-languages/internal/storage"
)

func newTestHandler(t *testing.T) *HTTPHandler {
	t.Helper()

	dir := t.TempDir()
	users := storage.NewUserStore(filepath.Join(dir, "users.json"))
	require.NoError(t, users.Init())
	queue := storage.NewHelpQueueStore(filepath.Join(dir, "help_queue.json"))
	require.NoError(t, queue.Init())

	_, _, err := users.Create("100", time.Now())
	require.NoError(t, err)
	_, err = users.Update("100", func(u *storage.Profile) { u.IsPremium = true })
	require.NoError(t, err)

	_, err = queue.Enqueue("100")
	require.NoError(t, err)

	return NewHTTPHandler(users, queue, services.NewStatsService(users))
}

func doRequest(t *testing.T, h *HTTPHandler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestGetUsersHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doRequest(t, h, "/v1/users")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_count"])
	assert.Contains(t, body["users"], "100")
}

func TestGetUserHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doRequest(t, h, "/v1/users/100")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", body["id"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, user["is_premium"])
	assert.Equal(t, "A1", user["current_level"])
}

func TestGetUserHandlerNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doRequest(t, h, "/v1/users/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestGetStatsHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doRequest(t, h, "/v1/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_users"])
	assert.Equal(t, float64(1), body["total_premium"])
	assert.Equal(t, float64(1), body["new_today"])
	assert.Equal(t, float64(0), body["payments_today"])
}

func TestGetHelpQueueHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, body := doRequest(t, h, "/v1/helpqueue")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_count"])
	assert.Equal(t, []interface{}{"100"}, body["queue"])
}
