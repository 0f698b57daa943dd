// Package session keeps one server-side document and Component per live
// connection.
package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/memory"
)

var ErrUnknownListener = errors.New("unknown listener id")

// Factory builds the document and Component of a new session. The document
// must be created with htmldoc.WithListenerIDs so clients can address
// listener nodes.
type Factory func() (*htmldoc.Document, *objectmodel.Component, error)

// Session represents one live page
type Session struct {
	ID        string
	CreatedAt time.Time

	// lastAccess is unix nanoseconds; every client action refreshes it.
	lastAccess atomic.Int64

	// mu serializes every event on the document: the engine has a single
	// event timeline.
	mu     sync.Mutex
	doc    *htmldoc.Document
	comp   *objectmodel.Component
	budget *memory.Manager
}

// LastAccess returns the time of the last lookup or client action.
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// Dispatch fires event on the node stamped with listenerID. It reports
// whether the default action was left alone.
func (s *Session) Dispatch(listenerID, event string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	n := s.doc.NodeByListenerID(listenerID)
	if n == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownListener, listenerID)
	}
	return s.doc.Dispatch(n, event), nil
}

// Navigate pushes path and recomputes the routers.
func (s *Session) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.comp.Navigate(path)
}

// Go moves through the session history like the browser back and forward
// buttons.
func (s *Session) Go(delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.doc.Session().Go(delta)
}

// Path returns the current history path.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Session().Path()
}

// Render writes the document and records its size against the budget.
func (s *Session) Render(w io.Writer, opts ...htmldoc.RenderOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cw := &countingWriter{w: w}
	err := s.doc.Render(cw, opts...)
	if s.budget != nil && err == nil {
		s.budget.Update(s.ID, cw.n)
	}
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Do runs fn with exclusive access to the document and Component.
func (s *Session) Do(fn func(doc *htmldoc.Document, c *objectmodel.Component) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc, s.comp)
}

// Manager handles session lifecycle
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	factory  Factory
	budget   *memory.Manager
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBudget admits new sessions only while b has room.
func WithBudget(b *memory.Manager) ManagerOption {
	return func(m *Manager) { m.budget = b }
}

// NewManager creates a new session manager
func NewManager(factory Factory, ttl time.Duration, opts ...ManagerOption) *Manager {
	if ttl == 0 {
		ttl = 30 * time.Minute // Default 30 minutes
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Memory reports budget usage. It is the zero Status without a budget.
func (m *Manager) Memory() memory.Status {
	if m.budget == nil {
		return memory.Status{}
	}
	return m.budget.GetStatus()
}

func (m *Manager) release(id string) {
	if m.budget != nil {
		m.budget.Release(id)
	}
}

// CreateSession mounts a fresh document and stores it under a new id
func (m *Manager) CreateSession() (*Session, error) {
	doc, comp, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to mount session: %w", err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		doc:       doc,
		comp:      comp,
		budget:    m.budget,
	}
	session.touch()
	if m.budget != nil {
		if err := m.budget.Allocate(session.ID, int64(len(doc.String()))); err != nil {
			return nil, fmt.Errorf("failed to admit session: %w", err)
		}
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, false
	}

	// Check if session has expired
	if time.Since(session.LastAccess()) > m.ttl {
		delete(m.sessions, sessionID)
		m.release(sessionID)
		return nil, false
	}

	// Update last access time
	session.touch()
	return session, true
}

// DeleteSession removes a session
func (m *Manager) DeleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	m.release(sessionID)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions removes expired sessions
func (m *Manager) CleanupExpiredSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	cutoff := time.Now().Add(-m.ttl)

	for sessionID, session := range m.sessions {
		if session.LastAccess().Before(cutoff) {
			delete(m.sessions, sessionID)
			m.release(sessionID)
			count++
		}
	}

	return count
}
