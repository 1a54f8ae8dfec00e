package whatsapp

import (
	"context"                         // Lifetime of all sessions
	"os"                              // For removing profiles
	"path/filepath"                   // For profile paths
	"shaadi_planner/internal/metrics" // Session gauge
	"strconv"                         // For tenant directory names
	"sync"                            // For the session map lock

	"github.com/sirupsen/logrus" // Logging library
)

// Manager owns the sessions of all tenants.
type Manager struct {
	factory Factory
	dataDir string // profiles live in dataDir/<tenant>; empty disables purging

	mu       sync.RWMutex     // Guards sessions, starting and attempt
	sessions map[uint]Session // Launched sessions by tenant
	starting map[uint]uint64  // tenants whose browser is launching, by attempt
	attempt  uint64
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewManager creates a manager. Sessions outlive the requests that start them
// and are stopped by Shutdown.
func NewManager(factory Factory, dataDir string) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		factory:  factory,
		dataDir:  dataDir,
		sessions: make(map[uint]Session),
		starting: make(map[uint]uint64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ProfileDir is where a tenant's browser profile is stored.
func ProfileDir(dataDir string, tenantID uint) string {
	return filepath.Join(dataDir, strconv.FormatUint(uint64(tenantID), 10))
}

// Connect starts a session for tenantID unless a live one exists. The launch
// runs outside the manager lock; until it returns the tenant reports
// initializing.
func (m *Manager) Connect(tenantID uint) (Snapshot, error) {
	m.mu.Lock()
	if err := m.ctx.Err(); err != nil {
		m.mu.Unlock()
		return Snapshot{Status: StatusDisconnected}, err
	}
	if _, ok := m.starting[tenantID]; ok {
		m.mu.Unlock()
		return Snapshot{Status: StatusInitializing}, nil
	}
	stale, ok := m.sessions[tenantID]
	if ok {
		snap := stale.Snapshot()
		if snap.Status != StatusFailed && snap.Status != StatusDisconnected {
			m.mu.Unlock()
			return snap, nil
		}
		delete(m.sessions, tenantID)
		metrics.WhatsAppSessions.Dec()
	}
	m.attempt++
	attempt := m.attempt
	m.starting[tenantID] = attempt
	m.mu.Unlock()

	if stale != nil {
		_ = stale.Close() // Release the profile before the new browser opens it
	}

	s, err := m.factory(tenantID)
	if err == nil {
		if err = s.Start(m.ctx); err != nil {
			_ = s.Close()
		}
	}

	m.mu.Lock()
	current := m.starting[tenantID] == attempt
	if current {
		delete(m.starting, tenantID)
	}
	if err != nil {
		m.mu.Unlock()
		logrus.WithFields(logrus.Fields{"tenant_id": tenantID, "error": err.Error()}).Error("WhatsApp session failed to start")
		return Snapshot{Status: StatusFailed, Error: err.Error()}, err
	}
	if !current {
		// Logged out or shut down while launching
		m.mu.Unlock()
		_ = s.Close()
		return Snapshot{Status: StatusDisconnected}, nil
	}
	m.sessions[tenantID] = s
	metrics.WhatsAppSessions.Inc()
	m.mu.Unlock()

	logrus.WithField("tenant_id", tenantID).Info("WhatsApp session started")
	return s.Snapshot(), nil
}

// Status returns the tenant's session state, disconnected when none exists.
func (m *Manager) Status(tenantID uint) Snapshot {
	m.mu.RLock()
	s, ok := m.sessions[tenantID]
	_, launching := m.starting[tenantID]
	m.mu.RUnlock()
	if launching {
		return Snapshot{Status: StatusInitializing}
	}
	if !ok {
		return Snapshot{Status: StatusDisconnected}
	}
	return s.Snapshot()
}

// Ready returns the tenant's session if it is paired.
func (m *Manager) Ready(tenantID uint) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[tenantID]
	m.mu.RUnlock()
	if !ok || s.Snapshot().Status != StatusReady {
		return nil, ErrNotReady
	}
	return s, nil
}

// Logout closes the tenant's session and forgets its pairing.
func (m *Manager) Logout(tenantID uint) error {
	m.mu.Lock()
	s, ok := m.sessions[tenantID]
	delete(m.sessions, tenantID)
	delete(m.starting, tenantID) // a launch in flight is closed when it returns
	m.mu.Unlock()

	var err error
	if ok {
		err = s.Close()
		metrics.WhatsAppSessions.Dec()
	}
	if m.dataDir != "" {
		if rmErr := os.RemoveAll(ProfileDir(m.dataDir, tenantID)); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	logrus.WithField("tenant_id", tenantID).Info("WhatsApp session logged out")
	return err
}

// Shutdown closes every session; profiles are kept.
func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.starting)
	for id, s := range m.sessions {
		if err := s.Close(); err != nil {
			logrus.WithFields(logrus.Fields{"tenant_id": id, "error": err.Error()}).Warn("WhatsApp session close failed")
		}
		delete(m.sessions, id)
		metrics.WhatsAppSessions.Dec()
	}
}
