package discovery

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamnet/rover/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveHosts(t *testing.T, pick func(call int) []domain.HostInfo) *httptest.Server {
	t.Helper()
	var calls atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"data": map[string]any{"hosts": pick(n)},
		})
	}))
}

func TestNewRejectsInvalidURL(t *testing.T) {
	for _, bad := range []string{"", "not a url", "/relative/only"} {
		_, err := New(bad, 8, discardLogger())
		assert.Error(t, err, "url %q", bad)
	}
}

func TestFindHostsReturnsRegistryResult(t *testing.T) {
	want := []domain.HostInfo{
		{ID: "a", Name: "alpha", Addr: "http://alpha"},
		{ID: "b", Name: "beta", Addr: "http://beta"},
	}
	srv := serveHosts(t, func(int) []domain.HostInfo { return want })
	defer srv.Close()

	c, err := New(srv.URL, 8, discardLogger())
	require.NoError(t, err)

	got, err := c.FindHosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindHostsEmptyIsNotAnError(t *testing.T) {
	srv := serveHosts(t, func(int) []domain.HostInfo { return nil })
	defer srv.Close()

	c, err := New(srv.URL, 8, discardLogger())
	require.NoError(t, err)

	got, err := c.FindHosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWaitForHostsRetriesUntilNonEmpty(t *testing.T) {
	want := []domain.HostInfo{{ID: "a", Name: "alpha", Addr: "http://alpha"}}
	srv := serveHosts(t, func(call int) []domain.HostInfo {
		if call < 3 {
			return nil
		}
		return want
	})
	defer srv.Close()

	c, err := New(srv.URL, 8, discardLogger())
	require.NoError(t, err)

	got, err := c.WaitForHosts(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWaitForHostsHonorsCancellation(t *testing.T) {
	srv := serveHosts(t, func(int) []domain.HostInfo { return nil })
	defer srv.Close()

	c, err := New(srv.URL, 8, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.WaitForHosts(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForHostsSurvivesRegistryFaults(t *testing.T) {
	var calls atomic.Int32
	want := []domain.HostInfo{{ID: "a", Name: "alpha", Addr: "http://alpha"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"data": map[string]any{"hosts": want},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, 8, discardLogger())
	require.NoError(t, err)

	got, err := c.WaitForHosts(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
