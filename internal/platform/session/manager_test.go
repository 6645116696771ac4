package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	mgr, err := NewManager(Config{
		HashKey:  testHashKey,
		Lifetime: time.Hour,
		Now:      now,
	})
	require.NoError(t, err)
	return mgr
}

func requestWithCookies(t *testing.T, recorder *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range recorder.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestManagerIssueAndLoad(t *testing.T) {
	mgr := newTestManager(t, nil)

	recorder := httptest.NewRecorder()
	require.NoError(t, mgr.Issue(recorder, User{UID: "uid-1", Email: "admin@example.com"}))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	user, err := mgr.Load(requestWithCookies(t, recorder))
	require.NoError(t, err)
	require.Equal(t, "uid-1", user.UID)
	require.Equal(t, "admin@example.com", user.Email)
}

func TestManagerLoadMissingCookie(t *testing.T) {
	mgr := newTestManager(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	_, err := mgr.Load(req)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestManagerLoadTamperedCookie(t *testing.T) {
	mgr := newTestManager(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: "garbage"})

	_, err := mgr.Load(req)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestManagerLoadExpired(t *testing.T) {
	current := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)
	mgr := newTestManager(t, func() time.Time { return current })

	recorder := httptest.NewRecorder()
	require.NoError(t, mgr.Issue(recorder, User{UID: "uid-1"}))

	current = current.Add(2 * time.Hour)

	_, err := mgr.Load(requestWithCookies(t, recorder))
	require.ErrorIs(t, err, ErrExpired)
}

func TestManagerDestroy(t *testing.T) {
	mgr := newTestManager(t, nil)

	recorder := httptest.NewRecorder()
	mgr.Destroy(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
	require.Empty(t, cookies[0].Value)
}

func TestNewManagerRequiresHashKey(t *testing.T) {
	_, err := NewManager(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManagerDifferentKeysRejectCookie(t *testing.T) {
	first := newTestManager(t, nil)

	recorder := httptest.NewRecorder()
	require.NoError(t, first.Issue(recorder, User{UID: "uid-1"}))

	second, err := NewManager(Config{HashKey: []byte("fedcba9876543210fedcba9876543210")})
	require.NoError(t, err)

	_, err = second.Load(requestWithCookies(t, recorder))
	require.ErrorIs(t, err, ErrNoSession)
}
