package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"shaadi_planner/internal/config"
	"shaadi_planner/internal/db"
	"shaadi_planner/internal/invite"
	"shaadi_planner/internal/whatsapp"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeSession stands in for a WhatsApp Web browser.
type fakeSession struct {
	mu     sync.Mutex
	status whatsapp.Status
	fail   map[string]error
	texts  map[string]string
	images int
}

func (f *fakeSession) Start(context.Context) error { return nil }

func (f *fakeSession) Snapshot() whatsapp.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return whatsapp.Snapshot{Status: f.status}
}

func (f *fakeSession) SendText(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[phone]; err != nil {
		return err
	}
	f.texts[phone] = text
	return nil
}

func (f *fakeSession) SendImage(_ context.Context, phone string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[phone]; err != nil {
		return err
	}
	f.images++
	return nil
}

func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) setStatus(s whatsapp.Status) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(context.Context, string) (string, error) {
	return f.reply, f.err
}

type testEnv struct {
	t       *testing.T
	router  *gin.Engine
	db      *gorm.DB
	mr      *miniredis.Miniredis
	session *fakeSession
}

func newTestEnv(t *testing.T, gen invite.Generator) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenSQLite(":memory:", &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sess := &fakeSession{status: whatsapp.StatusQR, fail: map[string]error{}, texts: map[string]string{}}
	wa := whatsapp.NewManager(func(uint) (whatsapp.Session, error) { return sess, nil }, "")
	t.Cleanup(wa.Shutdown)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		CORSOrigins:    []string{"*"},
		ReportTimezone: "Asia/Kolkata",
		UploadMaxBytes: 5 << 20,
	}
	r := NewRouter(Deps{
		Config:    cfg,
		DB:        gdb,
		Redis:     rdb,
		WhatsApp:  wa,
		Sender:    whatsapp.NewSender(0, "91"),
		Generator: gen,
	})
	return &testEnv{t: t, router: r, db: gdb, mr: mr, session: sess}
}

// do sends a JSON request, authenticated when token is set.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers mobile and returns its token.
func (e *testEnv) signup(mobile string) string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": mobile, "password": "secret1"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
