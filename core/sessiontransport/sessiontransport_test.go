package sessiontransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeeperhq/gatekeeper/core/secevent"
	"github.com/gatekeeperhq/gatekeeper/core/session"
	"github.com/gatekeeperhq/gatekeeper/core/sessiontransport"
)

// memStore is an in-memory session.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*session.Session)}
}

func (s *memStore) Insert(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *memStore) FindByToken(ctx context.Context, token string) (*session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &session.View{Session: *sess, Username: "alice", UserStatus: "active"}, nil
}

func (s *memStore) Touch(ctx context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.LastActivityAt = at
	}
	return nil
}

func (s *memStore) SetExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.ExpiresAt = expiresAt
	}
	return nil
}

func (s *memStore) Deactivate(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	return true, nil
}

func (s *memStore) DeactivateAllForUser(ctx context.Context, userID uuid.UUID, exceptToken string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive && token != exceptToken {
			sess.IsActive = false
			n++
		}
	}
	return n, nil
}

type discardEvents struct{}

func (discardEvents) Append(ctx context.Context, e *secevent.Event) error { return nil }

func newManager(t *testing.T, store session.Store) *session.Manager {
	t.Helper()
	return session.NewManager(store, secevent.NewRecorder(discardEvents{}))
}

func TestCookie(t *testing.T) {
	t.Parallel()

	t.Run("roundtrip", func(t *testing.T) {
		t.Parallel()

		ck := sessiontransport.NewCookie()
		rec := httptest.NewRecorder()
		require.NoError(t, ck.Write(rec, "tok-123", time.Now().Add(time.Hour)))

		set := rec.Result().Cookies()
		require.Len(t, set, 1)
		assert.Equal(t, sessiontransport.DefaultCookieName, set[0].Name)
		assert.Equal(t, "tok-123", set[0].Value)
		assert.True(t, set[0].HttpOnly)
		assert.True(t, set[0].Secure)
		assert.Equal(t, http.SameSiteLaxMode, set[0].SameSite)
		assert.InDelta(t, 3600, set[0].MaxAge, 2)

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(set[0])
		token, err := ck.Read(r)
		require.NoError(t, err)
		assert.Equal(t, "tok-123", token)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		ck := sessiontransport.NewCookie()
		_, err := ck.Read(httptest.NewRequest("GET", "/", nil))
		require.ErrorIs(t, err, sessiontransport.ErrNoToken)
	})

	t.Run("refuses expired session", func(t *testing.T) {
		t.Parallel()

		ck := sessiontransport.NewCookie()
		err := ck.Write(httptest.NewRecorder(), "tok", time.Now().Add(-time.Minute))
		require.ErrorIs(t, err, sessiontransport.ErrSessionExpired)
	})

	t.Run("clear expires immediately", func(t *testing.T) {
		t.Parallel()

		ck := sessiontransport.NewCookie(sessiontransport.WithCookieName("sid"))
		rec := httptest.NewRecorder()
		ck.Clear(rec)

		set := rec.Result().Cookies()
		require.Len(t, set, 1)
		assert.Equal(t, "sid", set[0].Name)
		assert.Empty(t, set[0].Value)
		assert.Equal(t, -1, set[0].MaxAge)
	})
}

func TestEndpoints_Status(t *testing.T) {
	t.Parallel()

	t.Run("active session", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		sess, err := mgr.Create(context.Background(), uuid.New(), "192.0.2.1", "test-agent")
		require.NoError(t, err)

		ck := sessiontransport.NewCookie()
		ep := sessiontransport.NewEndpoints(mgr, ck)

		r := httptest.NewRequest("GET", "/session/status", nil)
		r.AddCookie(&http.Cookie{Name: ck.Name(), Value: sess.Token})
		rec := httptest.NewRecorder()
		ep.Status(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["active"])
		assert.Equal(t, "alice", body["user"])
		assert.NotEmpty(t, body["expires_at"])
	})

	t.Run("no cookie answers 401", func(t *testing.T) {
		t.Parallel()

		ep := sessiontransport.NewEndpoints(newManager(t, newMemStore()), sessiontransport.NewCookie())
		rec := httptest.NewRecorder()
		ep.Status(rec, httptest.NewRequest("GET", "/session/status", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"active": false}`, rec.Body.String())
	})

	t.Run("unknown token answers 401", func(t *testing.T) {
		t.Parallel()

		ck := sessiontransport.NewCookie()
		ep := sessiontransport.NewEndpoints(newManager(t, newMemStore()), ck)

		r := httptest.NewRequest("GET", "/session/status", nil)
		r.AddCookie(&http.Cookie{Name: ck.Name(), Value: "bogus"})
		rec := httptest.NewRecorder()
		ep.Status(rec, r)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"active": false}`, rec.Body.String())
	})

	t.Run("invalidated session answers 401", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		sess, err := mgr.Create(context.Background(), uuid.New(), "192.0.2.1", "test-agent")
		require.NoError(t, err)
		require.NoError(t, mgr.Invalidate(context.Background(), sess.Token))

		ck := sessiontransport.NewCookie()
		ep := sessiontransport.NewEndpoints(mgr, ck)

		r := httptest.NewRequest("GET", "/session/status", nil)
		r.AddCookie(&http.Cookie{Name: ck.Name(), Value: sess.Token})
		rec := httptest.NewRecorder()
		ep.Status(rec, r)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEndpoints_Extend(t *testing.T) {
	t.Parallel()

	t.Run("pushes expiry forward and refreshes cookie", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		mgr := newManager(t, store)
		sess, err := mgr.Create(context.Background(), uuid.New(), "192.0.2.1", "test-agent")
		require.NoError(t, err)

		ck := sessiontransport.NewCookie()
		ep := sessiontransport.NewEndpoints(mgr, ck)

		r := httptest.NewRequest("POST", "/session/extend", nil)
		r.AddCookie(&http.Cookie{Name: ck.Name(), Value: sess.Token})
		rec := httptest.NewRecorder()
		ep.Extend(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])

		set := rec.Result().Cookies()
		require.Len(t, set, 1)
		assert.Equal(t, sess.Token, set[0].Value)

		view, err := store.FindByToken(context.Background(), sess.Token)
		require.NoError(t, err)
		assert.True(t, view.ExpiresAt.After(sess.ExpiresAt.Add(-time.Second)))
	})

	t.Run("no cookie answers 401", func(t *testing.T) {
		t.Parallel()

		ep := sessiontransport.NewEndpoints(newManager(t, newMemStore()), sessiontransport.NewCookie())
		rec := httptest.NewRecorder()
		ep.Extend(rec, httptest.NewRequest("POST", "/session/extend", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	})
}
