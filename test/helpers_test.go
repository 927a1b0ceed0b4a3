//go:build integration
// +build integration

package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// authServer is a bearer-protected upstream for end-to-end runs: it issues a
// token pair on login, validates the access token on protected routes, and
// rotates the pair on refresh.
type authServer struct {
	srv *httptest.Server

	mu      sync.Mutex
	access  string
	refresh string
	serial  int
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()

	as := &authServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/login", methodOnly(http.MethodPost, as.handleLogin))
	mux.HandleFunc("/orders", methodOnly(http.MethodGet, as.handleOrders))
	mux.HandleFunc("/refresh", methodOnly(http.MethodPost, as.handleRefresh))

	as.srv = httptest.NewServer(mux)
	t.Cleanup(as.srv.Close)
	return as
}

// methodOnly restricts a handler to one method; the Go 1.22 "METHOD /path"
// ServeMux patterns are unavailable on this toolchain.
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (a *authServer) issuePair() (string, string) {
	a.serial++
	a.access = "access-" + itoa(a.serial)
	a.refresh = "refresh-" + itoa(a.serial)
	return a.access, a.refresh
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (a *authServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	access, refresh := a.issuePair()
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (a *authServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	valid := a.access
	a.mu.Unlock()

	if valid == "" || r.Header.Get("Authorization") != "Bearer "+valid {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(`{"orders":[]}`))
}

func (a *authServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	_ = json.NewDecoder(r.Body).Decode(&payload)

	a.mu.Lock()
	defer a.mu.Unlock()
	if payload["refresh_token"] != a.refresh {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	access, refresh := a.issuePair()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// expireAccess invalidates the current access token while keeping the refresh
// token valid.
func (a *authServer) expireAccess() {
	a.mu.Lock()
	a.access = "rotated-away"
	a.mu.Unlock()
}

func newIntegrationRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
