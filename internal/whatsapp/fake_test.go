package whatsapp

import (
	"context"
	"errors"
	"sync"
)

type sentMessage struct {
	phone string
	text  string
	image bool
}

// fakeSession records sends instead of driving a browser.
type fakeSession struct {
	mu       sync.Mutex
	status   Status
	startErr error
	fail     map[string]error
	sent     []sentMessage
	closed   bool

	entered chan struct{} // closed when Start begins, if set
	gate    chan struct{} // Start waits for it, if set
}

func newFakeSession(status Status) *fakeSession {
	return &fakeSession{status: status, fail: map[string]error{}}
}

func (f *fakeSession) Start(ctx context.Context) error {
	if f.gate != nil {
		close(f.entered)
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		f.status = StatusFailed
		return f.startErr
	}
	if f.status == "" || f.status == StatusDisconnected {
		f.status = StatusQR
	}
	return nil
}

func (f *fakeSession) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{Status: f.status}
}

func (f *fakeSession) SendText(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[phone]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	return nil
}

func (f *fakeSession) SendImage(_ context.Context, phone string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[phone]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{phone: phone, image: true})
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.status = StatusDisconnected
	return nil
}

var errBoom = errors.New("boom")
