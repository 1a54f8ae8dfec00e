package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shaadi_planner/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func TestGuestCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")

	w := env.do(http.MethodPost, "/api/guests", token, gin.H{"mobile": "9123456789"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/guests", token, gin.H{
		"name":            " Asha ",
		"mobile":          "9123456789",
		"gender":          "f",
		"arrivalTime":     "2025-03-10T14:30",
		"arrivalFlightNo": "AI 101",
		"departureTime":   "not a date",
		"userId":          999,
		"roomId":          5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	guest := decode[domain.Guest](t, w)
	assert.Equal(t, "Asha", guest.Name)
	assert.Equal(t, domain.GenderFemale, guest.Gender)
	assert.NotEqual(t, uint(999), guest.UserID)
	assert.Nil(t, guest.RoomID)
	assert.Nil(t, guest.DepartureTime)
	require.NotNil(t, guest.ArrivalTime)
	ist := time.FixedZone("IST", 5*3600+1800)
	assert.True(t, guest.ArrivalTime.Equal(time.Date(2025, 3, 10, 14, 30, 0, 0, ist)))

	// Absent dates stay, empty dates clear.
	w = env.do(http.MethodPut, "/api/guests/"+itoa(guest.ID), token, gin.H{"side": "Bride", "isTentative": true})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.Guest](t, w)
	assert.Equal(t, "Bride", updated.Side)
	assert.True(t, updated.IsTentative)
	assert.NotNil(t, updated.ArrivalTime)

	w = env.do(http.MethodPut, "/api/guests/"+itoa(guest.ID), token, gin.H{"arrivalTime": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[domain.Guest](t, w).ArrivalTime)

	w = env.do(http.MethodPut, "/api/guests/"+itoa(guest.ID), token, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPut, "/api/guests/abc", token, gin.H{"side": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/guests", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Guest](t, w), 1)

	// Another wedding cannot see or touch the guest.
	other := env.signup("9000000001")
	w = env.do(http.MethodPut, "/api/guests/"+itoa(guest.ID), other, gin.H{"side": "Groom"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodDelete, "/api/guests/"+itoa(guest.ID), other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodGet, "/api/guests", other, nil)
	assert.JSONEq(t, "[]", w.Body.String())

	w = env.do(http.MethodDelete, "/api/guests/"+itoa(guest.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, "/api/guests/"+itoa(guest.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBulkDeleteAndDeleteAll(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")
	var ids []uint
	for _, name := range []string{"A", "B", "C", "D"} {
		w := env.do(http.MethodPost, "/api/guests", token, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[domain.Guest](t, w).ID)
	}

	w := env.do(http.MethodPost, "/api/guests/bulk-delete", token, gin.H{"ids": "1,2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "IDs must be an array")
	w = env.do(http.MethodPost, "/api/guests/bulk-delete", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/guests/bulk-delete", token, gin.H{"ids": ids[:2]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["count"])

	w = env.do(http.MethodGet, "/api/guests", token, nil)
	assert.Len(t, decode[[]domain.Guest](t, w), 2)

	w = env.do(http.MethodDelete, "/api/guests", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/guests", token, nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func xlsxUpload(t *testing.T, env *testEnv, token string, rows [][]any) *httptest.ResponseRecorder {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	data, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "guests.xlsx")
	require.NoError(t, err)
	_, err = part.Write(data.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/guests/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestUploadGuests(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")

	w := xlsxUpload(t, env, token, [][]any{
		{"Guest Name", "Mobile Number", "Sex", "Side"},
		{"Asha", "9123456789", "F", "Bride"},
		{"", "9000000000", "M", ""},
		{"Ravi", "9234567890", "male", "Groom"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["count"])

	w = env.do(http.MethodGet, "/api/guests", token, nil)
	guests := decode[[]domain.Guest](t, w)
	require.Len(t, guests, 2)
	byName := map[string]domain.Guest{}
	for _, g := range guests {
		byName[g.Name] = g
	}
	assert.Equal(t, domain.GenderFemale, byName["Asha"].Gender)
	assert.Equal(t, domain.GenderMale, byName["Ravi"].Gender)
	assert.Equal(t, "9234567890", byName["Ravi"].Mobile)

	w = xlsxUpload(t, env, token, [][]any{{"Phone", "City"}, {"9123456789", "Pune"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No valid guest data found in file. Make sure your columns are labeled Name and Phone.")

	req := httptest.NewRequest(http.MethodPost, "/api/guests/upload", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file uploaded")
}

func TestStatsAreCachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")

	w := env.do(http.MethodPost, "/api/rooms", token, gin.H{"name": "Suite", "capacity": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	room := decode[domain.Room](t, w)
	w = env.do(http.MethodPut, "/api/rooms/"+itoa(room.ID), token, gin.H{"hasExtraBed": true})
	require.Equal(t, http.StatusOK, w.Code)

	var ids []uint
	for _, g := range []gin.H{{"name": "A"}, {"name": "B"}, {"name": "C", "isTentative": true}} {
		w := env.do(http.MethodPost, "/api/guests", token, g)
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[domain.Guest](t, w).ID)
	}
	w = env.do(http.MethodPost, "/api/rooms/allocate", token, gin.H{"guestId": ids[0], "roomId": room.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, "/api/finance", token, gin.H{"category": "Venue", "amount": 1500.5})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[Stats](t, w)
	assert.Equal(t, Stats{
		TotalGuests:       3,
		TentativeGuests:   1,
		VisitingGuests:    2,
		UnassignedGuests:  1,
		TotalRooms:        1,
		TotalCapacity:     3,
		RemainingCapacity: 2,
		TotalSpent:        1500.5,
		UnnotifiedGuests:  1,
	}, stats)

	w = env.do(http.MethodGet, "/api/stats", token, nil)
	assert.True(t, decode[Stats](t, w).Cached)

	w = env.do(http.MethodPost, "/api/guests", token, gin.H{"name": "D"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodGet, "/api/stats", token, nil)
	stats = decode[Stats](t, w)
	assert.False(t, stats.Cached)
	assert.Equal(t, int64(4), stats.TotalGuests)

	// Guests with a room who were not notified.
	w = env.do(http.MethodGet, "/api/guests/unnotified", token, nil)
	unnotified := decode[[]domain.Guest](t, w)
	require.Len(t, unnotified, 1)
	assert.Equal(t, "A", unnotified[0].Name)
	require.NotNil(t, unnotified[0].Room)
	assert.Equal(t, "Suite", unnotified[0].Room.Name)
}

func TestUpdateGuestLogsFailedReload(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")
	id := createGuests(t, env, token, "Asha")[0]
	room := createRoom(t, env, token, "Suite", 2)

	// Fail only the reload, which is the one query preloading the room.
	failReload := true
	require.NoError(t, env.db.Callback().Query().Before("gorm:query").Register("test:fail_reload", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Preloads["Room"]; ok && failReload {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))
	t.Cleanup(func() { failReload = false })
	hook := logtest.NewGlobal()
	defer hook.Reset()

	w := env.do(http.MethodPut, "/api/guests/"+itoa(id), token, gin.H{"side": "Groom"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Groom", decode[domain.Guest](t, w).Side)

	w = env.do(http.MethodPost, "/api/rooms/allocate", token, gin.H{"guestId": id, "roomId": room.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, room.ID, *roomOf(t, env, id))

	warned := map[string]bool{}
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned[entry.Message] = true
			assert.Equal(t, "connection reset", entry.Data["error"])
		}
	}
	assert.True(t, warned["Failed to reload updated guest"])
	assert.True(t, warned["Failed to reload allocated guest"])
}
