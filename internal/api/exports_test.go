package api

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"shaadi_planner/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedTravel(t *testing.T, env *testEnv, token string) {
	t.Helper()
	room := createRoom(t, env, token, "Suite", 2)
	for _, g := range []gin.H{
		{"name": "Asha", "mobile": "9123456789", "arrivalTime": "2025-03-10T09:00", "arrivalFlightNo": "AI 101", "arrivalPnr": "PNR1"},
		{"name": "Ravi", "mobile": "9234567890", "arrivalTime": "2025-03-10T09:00", "arrivalFlightNo": "AI 101"},
		{"name": "Kabir", "departureTime": "2025-03-12T18:00"},
	} {
		w := env.do(http.MethodPost, "/api/guests", token, g)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	ids := createGuests(t, env, token, "Meera")
	w := env.do(http.MethodPost, "/api/rooms/allocate", token, gin.H{"guestId": ids[0], "roomId": room.ID})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExportsWithBearerToken(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")
	seedTravel(t, env, token)

	w := env.do(http.MethodGet, "/api/rooms/export/excel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Room_Layout.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows("Room Layout")
	require.NoError(t, err)
	assert.Equal(t, []string{"Suite", "2", "1", "Meera"}, rows[2])
	require.NoError(t, f.Close())

	w = env.do(http.MethodGet, "/api/guests/export/travel?mode=arrivals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err = excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrivals"}, f.GetSheetList())
	require.NoError(t, f.Close())

	w = env.do(http.MethodGet, "/api/guests/export/travel?mode=sideways", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, path := range []string{"/api/rooms/export/pdf", "/api/guests/export/travel/pdf", "/api/guests/export/all/pdf"} {
		w = env.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, report.ContentTypePDF, w.Header().Get("Content-Type"), path)
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")), path)
	}

	w = env.do(http.MethodGet, "/api/guests/export/all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentTypeXLSX, w.Header().Get("Content-Type"))
}

func TestDownloadTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")

	w := env.do(http.MethodPost, "/api/downloads/token", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dl, _ := decode[map[string]any](t, w)["token"].(string)
	require.NotEmpty(t, dl)

	w = env.do(http.MethodGet, "/api/rooms/export/excel?dl="+dl, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/rooms/export/excel?dl="+dl, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Download tokens do not open the JSON API.
	w = env.do(http.MethodPost, "/api/downloads/token", token, nil)
	dl, _ = decode[map[string]any](t, w)["token"].(string)
	w = env.do(http.MethodGet, "/api/guests?dl="+dl, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Expired tokens are rejected.
	w = env.do(http.MethodPost, "/api/downloads/token", token, nil)
	dl, _ = decode[map[string]any](t, w)["token"].(string)
	env.mr.FastForward(2 * time.Minute)
	w = env.do(http.MethodGet, "/api/rooms/export/pdf?dl="+dl, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
