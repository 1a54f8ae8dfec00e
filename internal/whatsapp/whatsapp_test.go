package whatsapp

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	got := Render("Dear {{name}}, room {{ROOM}} on {{date}} at {{Venue}} ({{mobile}})", Vars{
		Name: "Asha", Mobile: "9876543210", Date: "15 March", Venue: "Taj",
	})
	assert.Equal(t, "Dear Asha, room TBD on 15 March at Taj (9876543210)", got)
	assert.Equal(t, "Room 7", Render("{{room}}", Vars{Room: "Room 7"}))
	assert.Equal(t, "{{unknown}}", Render("{{unknown}}", Vars{}))
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":       "919876543210",
		"98765 43210":      "919876543210",
		"09876543210":      "919876543210",
		"+91 98765-43210":  "919876543210",
		"+1 (415) 5550100": "14155550100",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in, "91")
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "12345", "1234567890123456"} {
		_, err := NormalizePhone(bad, "91")
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestSenderSendsSeriallyAndReportsFailures(t *testing.T) {
	sess := newFakeSession(StatusReady)
	sess.fail["919876543211"] = errBoom

	var notified []uint
	results := NewSender(0, "91").Send(context.Background(), sess, []Recipient{
		{ID: 1, Name: "Asha", Mobile: "9876543210", Room: "Room 1"},
		{ID: 2, Name: "Ravi", Mobile: "9876543211"},
		{ID: 3, Name: "Kabir", Mobile: "123"},
	}, Message{Template: DefaultTemplate}, func(r Recipient) { notified = append(notified, r.ID) })

	require.Len(t, results, 3)
	assert.Equal(t, Result{ID: 1, Name: "Asha", Status: ResultSent}, results[0])
	assert.Equal(t, ResultFailed, results[1].Status)
	assert.Equal(t, "boom", results[1].Error)
	assert.Equal(t, ResultFailed, results[2].Status)
	assert.Equal(t, ErrInvalidPhone.Error(), results[2].Error)
	assert.Equal(t, []uint{1}, notified)

	require.Len(t, sess.sent, 1)
	assert.Contains(t, sess.sent[0].text, "Dear Asha")
	assert.Contains(t, sess.sent[0].text, "Room 1")

	sent, failed := Count(results)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, failed)
}

func TestSenderImageThenText(t *testing.T) {
	sess := newFakeSession(StatusReady)
	results := NewSender(0, "91").Send(context.Background(), sess, []Recipient{{ID: 1, Name: "Asha", Mobile: "9876543210"}},
		Message{Template: "Hi {{name}}", Image: []byte{1, 2, 3}}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, ResultSent, results[0].Status)
	require.Len(t, sess.sent, 2)
	assert.True(t, sess.sent[0].image)
	assert.Equal(t, "Hi Asha", sess.sent[1].text)
}

func TestSenderImageOnly(t *testing.T) {
	sess := newFakeSession(StatusReady)
	results := NewSender(0, "91").Send(context.Background(), sess, []Recipient{{ID: 1, Name: "Asha", Mobile: "9876543210"}},
		Message{Image: []byte{1, 2, 3}}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, ResultSent, results[0].Status)
	require.Len(t, sess.sent, 1)
	assert.True(t, sess.sent[0].image)
}

func TestSenderPacesSends(t *testing.T) {
	sess := newFakeSession(StatusReady)
	start := time.Now()
	NewSender(30*time.Millisecond, "91").Send(context.Background(), sess, []Recipient{
		{ID: 1, Mobile: "9876543210"}, {ID: 2, Mobile: "9876543211"}, {ID: 3, Mobile: "9876543212"},
	}, Message{Template: "x"}, nil)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
	assert.Len(t, sess.sent, 3)
}

func TestSenderStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess := newFakeSession(StatusReady)
	results := NewSender(time.Hour, "91").Send(ctx, sess, []Recipient{{ID: 1, Mobile: "9876543210"}}, Message{Template: "x"}, nil)
	require.Len(t, results, 1)
	assert.Equal(t, ResultFailed, results[0].Status)
	assert.Empty(t, sess.sent)
}

func TestManagerLifecycle(t *testing.T) {
	dir := t.TempDir()
	created := map[uint]*fakeSession{}
	m := NewManager(func(tenantID uint) (Session, error) {
		s := newFakeSession(StatusDisconnected)
		created[tenantID] = s
		return s, nil
	}, dir)
	defer m.Shutdown()

	assert.Equal(t, StatusDisconnected, m.Status(1).Status)
	_, err := m.Ready(1)
	assert.ErrorIs(t, err, ErrNotReady)

	snap, err := m.Connect(1)
	require.NoError(t, err)
	assert.Equal(t, StatusQR, snap.Status)

	// Connecting again keeps the live session.
	first := created[1]
	_, err = m.Connect(1)
	require.NoError(t, err)
	assert.Same(t, first, created[1])

	first.mu.Lock()
	first.status = StatusReady
	first.mu.Unlock()
	sess, err := m.Ready(1)
	require.NoError(t, err)
	assert.Equal(t, Session(first), sess)

	require.NoError(t, os.MkdirAll(ProfileDir(dir, 1), 0o700))
	require.NoError(t, m.Logout(1))
	assert.True(t, first.closed)
	assert.Equal(t, StatusDisconnected, m.Status(1).Status)
	_, statErr := os.Stat(ProfileDir(dir, 1))
	assert.True(t, os.IsNotExist(statErr))
}

func TestManagerReplacesFailedSession(t *testing.T) {
	var sessions []*fakeSession
	m := NewManager(func(uint) (Session, error) {
		s := newFakeSession(StatusDisconnected)
		sessions = append(sessions, s)
		return s, nil
	}, "")
	defer m.Shutdown()

	_, err := m.Connect(3)
	require.NoError(t, err)
	sessions[0].mu.Lock()
	sessions[0].status = StatusFailed
	sessions[0].mu.Unlock()

	_, err = m.Connect(3)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].closed)
}

func TestManagerStartFailure(t *testing.T) {
	m := NewManager(func(uint) (Session, error) {
		s := newFakeSession(StatusDisconnected)
		s.startErr = errBoom
		return s, nil
	}, "")
	defer m.Shutdown()

	snap, err := m.Connect(4)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, StatusDisconnected, m.Status(4).Status)
}

func TestManagerShutdownClosesSessions(t *testing.T) {
	var s *fakeSession
	m := NewManager(func(uint) (Session, error) {
		s = newFakeSession(StatusDisconnected)
		return s, nil
	}, "")
	_, err := m.Connect(5)
	require.NoError(t, err)
	m.Shutdown()
	assert.True(t, s.closed)
	assert.Equal(t, StatusDisconnected, m.Status(5).Status)
}

func TestManagerLaunchDoesNotBlockOtherTenants(t *testing.T) {
	var calls atomic.Int32
	slow := newFakeSession(StatusDisconnected)
	slow.entered = make(chan struct{})
	slow.gate = make(chan struct{})
	m := NewManager(func(tenantID uint) (Session, error) {
		calls.Add(1)
		if tenantID == 1 {
			return slow, nil
		}
		return newFakeSession(StatusDisconnected), nil
	}, "")
	defer m.Shutdown()

	done := make(chan Snapshot)
	go func() {
		snap, _ := m.Connect(1)
		done <- snap
	}()
	<-slow.entered

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		assert.Equal(t, StatusInitializing, m.Status(1).Status)
		assert.Equal(t, StatusDisconnected, m.Status(2).Status)
		_, err := m.Ready(2)
		assert.ErrorIs(t, err, ErrNotReady)
		snap, err := m.Connect(2)
		assert.NoError(t, err)
		assert.Equal(t, StatusQR, snap.Status)

		// A second connect for the launching tenant does not start another browser.
		snap, err = m.Connect(1)
		assert.NoError(t, err)
		assert.Equal(t, StatusInitializing, snap.Status)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("manager calls blocked while a browser was launching")
	}

	close(slow.gate)
	assert.Equal(t, StatusQR, (<-done).Status)
	assert.Equal(t, StatusQR, m.Status(1).Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestManagerLogoutDuringLaunch(t *testing.T) {
	slow := newFakeSession(StatusDisconnected)
	slow.entered = make(chan struct{})
	slow.gate = make(chan struct{})
	m := NewManager(func(uint) (Session, error) { return slow, nil }, "")
	defer m.Shutdown()

	done := make(chan Snapshot)
	go func() {
		snap, _ := m.Connect(6)
		done <- snap
	}()
	<-slow.entered
	require.NoError(t, m.Logout(6))
	close(slow.gate)

	assert.Equal(t, StatusDisconnected, (<-done).Status)
	assert.True(t, slow.closed)
	assert.Equal(t, StatusDisconnected, m.Status(6).Status)
}

func TestBrowserSessionExpireReleasesBrowser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &browserSession{tenantID: 8, cancel: cancel, snap: Snapshot{Status: StatusQR, QR: "cXI="}}

	s.expire()

	assert.Error(t, ctx.Err(), "browser context is cancelled")
	assert.Nil(t, s.cancel)
	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "timed out")
	assert.Empty(t, snap.QR)

	require.NoError(t, s.Close())
	assert.Equal(t, StatusDisconnected, s.Snapshot().Status)
}
