// Package whatsapp drives one WhatsApp Web session per tenant and sends
// templated guest notifications through it.
package whatsapp

import (
	"context" // For cancellation
	"errors"  // For sentinel errors
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusInitializing Status = "initializing"
	StatusQR           Status = "qr"
	StatusReady        Status = "ready"
	StatusFailed       Status = "failed"
)

var (
	// ErrNotReady is returned when sending through an unpaired session.
	ErrNotReady = errors.New("whatsapp session is not ready")
	// ErrInvalidNumber is returned when WhatsApp reports the number is not registered.
	ErrInvalidNumber = errors.New("phone number is not on whatsapp")
)

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	Status Status `json:"status"`
	QR     string `json:"qr,omitempty"` // base64 PNG, only while pairing
	Error  string `json:"error,omitempty"`
}

// Session is a paired (or pairing) WhatsApp client.
type Session interface {
	// Start begins pairing in the background and returns once the client is launched.
	Start(ctx context.Context) error
	Snapshot() Snapshot
	SendText(ctx context.Context, phone, text string) error
	SendImage(ctx context.Context, phone string, image []byte) error
	Close() error
}

// Factory creates the session of a tenant.
type Factory func(tenantID uint) (Session, error)
