package session

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/memory"
	"github.com/livefir/objectmodel/model"
)

const page = `<html><body>
<div id="main" js:object-model="counter">
  <span id="count" js:content="count"></span>
  <button id="inc" js:on-click="inc">+</button>
</div>
<div js:router="/"><p id="home" js:path="/">home</p><p id="x" js:path="/x">x</p></div>
</body></html>`

func counterFactory() (*htmldoc.Document, *objectmodel.Component, error) {
	doc, err := htmldoc.ParseString(page, htmldoc.WithListenerIDs())
	if err != nil {
		return nil, nil, err
	}
	c := objectmodel.New(doc)
	c.CreateModel("counter", model.Template{
		"count": model.Data(0),
		"inc": model.Handler(func(in *model.Instance, _ dom.Event) {
			in.Set("count", in.Value("count").(int)+1)
		}),
	})
	c.Initialize()
	doc.Load()
	return doc, c, nil
}

func listenerID(t *testing.T, s *Session, elementID string) string {
	t.Helper()
	var id string
	err := s.Do(func(doc *htmldoc.Document, _ *objectmodel.Component) error {
		var ok bool
		id, ok = doc.Attr(doc.ElementByID(elementID), htmldoc.ListenerIDAttr)
		if !ok {
			return errors.New("no listener id")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("listener id for #%s: %v", elementID, err)
	}
	return id
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{
			name: "with custom TTL",
			ttl:  12 * time.Hour,
			want: 12 * time.Hour,
		},
		{
			name: "with zero TTL uses default",
			ttl:  0,
			want: 30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(counterFactory, tt.ttl)
			if m == nil {
				t.Fatal("expected manager, got nil")
			}
			if m.ttl != tt.want {
				t.Errorf("ttl = %v, want %v", m.ttl, tt.want)
			}
			if m.sessions == nil {
				t.Error("sessions map not initialized")
			}
		})
	}
}

func TestCreateSession(t *testing.T) {
	m := NewManager(counterFactory, time.Hour)

	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if len(sess.ID) != 36 {
		t.Errorf("session ID %q is not a UUID", sess.ID)
	}
	if sess.CreatedAt.IsZero() || sess.LastAccess().IsZero() {
		t.Error("timestamps not set")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	other, _ := m.CreateSession()
	if other.ID == sess.ID {
		t.Error("duplicate session ID")
	}
}

func TestCreateSession_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(func() (*htmldoc.Document, *objectmodel.Component, error) {
		return nil, nil, boom
	}, time.Hour)

	if _, err := m.CreateSession(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if m.Len() != 0 {
		t.Error("failed session stored")
	}
}

func TestSession_DispatchIsIsolated(t *testing.T) {
	m := NewManager(counterFactory, time.Hour)
	a, _ := m.CreateSession()
	b, _ := m.CreateSession()

	id := listenerID(t, a, "inc")
	for i := 0; i < 3; i++ {
		if _, err := a.Dispatch(id, "click"); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}
	if _, err := b.Dispatch(listenerID(t, b, "inc"), "click"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	var buf bytes.Buffer
	if err := a.Render(&buf, htmldoc.BodyOnly()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `<span id="count">3</span>`) {
		t.Errorf("session a not updated:\n%s", buf.String())
	}

	buf.Reset()
	_ = b.Render(&buf, htmldoc.BodyOnly())
	if !strings.Contains(buf.String(), `<span id="count">1</span>`) {
		t.Errorf("session b not isolated:\n%s", buf.String())
	}

	if _, err := a.Dispatch("999", "click"); !errors.Is(err, ErrUnknownListener) {
		t.Errorf("err = %v, want ErrUnknownListener", err)
	}
}

func TestSession_NavigateAndHistory(t *testing.T) {
	m := NewManager(counterFactory, time.Hour)
	s, _ := m.CreateSession()

	s.Navigate("/x")
	if s.Path() != "/x" {
		t.Errorf("Path = %q, want /x", s.Path())
	}
	visible := func(id string) bool {
		found := false
		_ = s.Do(func(doc *htmldoc.Document, _ *objectmodel.Component) error {
			found = doc.ElementByID(id) != nil
			return nil
		})
		return found
	}
	if visible("home") || !visible("x") {
		t.Error("router not recomputed on navigate")
	}

	if !s.Go(-1) {
		t.Fatal("Go(-1) failed")
	}
	if !visible("home") || visible("x") {
		t.Error("router not recomputed on back")
	}
	if s.Go(-1) {
		t.Error("Go(-1) past the first entry should fail")
	}
}

func TestGetSession(t *testing.T) {
	m := NewManager(counterFactory, time.Hour)
	sess, _ := m.CreateSession()

	retrieved, exists := m.GetSession(sess.ID)
	if !exists {
		t.Fatal("expected session to exist")
	}
	if retrieved != sess {
		t.Error("retrieved a different session")
	}

	if _, exists = m.GetSession("nonexistent"); exists {
		t.Error("expected no session for non-existent ID")
	}
}

func TestSessionExpiration(t *testing.T) {
	m := NewManager(counterFactory, 50*time.Millisecond)
	sess, _ := m.CreateSession()

	if _, exists := m.GetSession(sess.ID); !exists {
		t.Error("session should exist immediately after creation")
	}

	time.Sleep(100 * time.Millisecond)

	if _, exists := m.GetSession(sess.ID); exists {
		t.Error("session should be expired and removed")
	}
	if m.Len() != 0 {
		t.Error("expired session still in map")
	}
}

func TestSessionActivityKeepsItAlive(t *testing.T) {
	m := NewManager(counterFactory, 100*time.Millisecond)
	sess, _ := m.CreateSession()
	inc := listenerID(t, sess, "inc")

	// Outlive the TTL several times over through client actions alone.
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		switch i % 3 {
		case 0:
			if _, err := sess.Dispatch(inc, "click"); err != nil {
				t.Fatalf("dispatch failed: %v", err)
			}
		case 1:
			sess.Navigate("/x")
		case 2:
			sess.Go(-1)
		}
		if count := m.CleanupExpiredSessions(); count != 0 {
			t.Fatalf("active session cleaned up after %d actions", i+1)
		}
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestDeleteAndCleanup(t *testing.T) {
	m := NewManager(counterFactory, 100*time.Millisecond)

	sess1, _ := m.CreateSession()
	sess2, _ := m.CreateSession()
	sess3, _ := m.CreateSession()

	m.DeleteSession(sess3.ID)
	if _, exists := m.GetSession(sess3.ID); exists {
		t.Error("session should not exist after deletion")
	}

	time.Sleep(60 * time.Millisecond)
	m.GetSession(sess1.ID)
	time.Sleep(60 * time.Millisecond)

	if count := m.CleanupExpiredSessions(); count != 1 {
		t.Errorf("CleanupExpiredSessions returned %d, want 1", count)
	}
	if _, exists := m.GetSession(sess1.ID); !exists {
		t.Error("sess1 should still exist after cleanup")
	}
	if _, exists := m.GetSession(sess2.ID); exists {
		t.Error("sess2 should not exist after cleanup")
	}
}

func TestConcurrentDispatch(t *testing.T) {
	m := NewManager(counterFactory, time.Hour)
	sess, _ := m.CreateSession()
	id := listenerID(t, sess, "inc")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = sess.Dispatch(id, "click")
				_, _ = m.GetSession(sess.ID)
			}
		}()
	}
	wg.Wait()

	_ = sess.Do(func(_ *htmldoc.Document, c *objectmodel.Component) error {
		if got := c.GetInstanceByID("main").Value("count"); got != 200 {
			t.Errorf("count = %v, want 200", got)
		}
		return nil
	})
}

func TestManager_Budget(t *testing.T) {
	// 1MB limit with a critical threshold of 0% leaves room for one session.
	budget := memory.NewManager(&memory.Config{MaxMemoryMB: 1, WarningThresholdPct: 0, CriticalThresholdPct: 0})
	manager := NewManager(counterFactory, time.Hour, WithBudget(budget))

	if _, err := manager.CreateSession(); err == nil || !errors.Is(err, memory.ErrOverBudget) {
		t.Fatalf("expected ErrOverBudget at 0%% threshold, got %v", err)
	}

	budget = memory.NewManager(&memory.Config{MaxMemoryMB: 1, WarningThresholdPct: 50, CriticalThresholdPct: 90})
	manager = NewManager(counterFactory, time.Hour, WithBudget(budget))

	session, err := manager.CreateSession()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	admitted, ok := budget.Usage(session.ID)
	if !ok || admitted == 0 {
		t.Fatalf("session not accounted: %d %v", admitted, ok)
	}

	var buf bytes.Buffer
	if err := session.Render(&buf, htmldoc.BodyOnly()); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if size, _ := budget.Usage(session.ID); size != int64(buf.Len()) {
		t.Errorf("expected usage %d after render, got %d", buf.Len(), size)
	}
	if got := manager.Memory().Sessions; got != 1 {
		t.Errorf("expected 1 budgeted session, got %d", got)
	}

	manager.DeleteSession(session.ID)
	if got := manager.Memory().CurrentUsage; got != 0 {
		t.Errorf("expected usage released, got %d", got)
	}

	if (NewManager(counterFactory, time.Hour).Memory() != memory.Status{}) {
		t.Error("manager without budget should report a zero status")
	}
}
