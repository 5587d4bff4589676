// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/go-service-template/internal/health"
)

func TestRootCmdListsSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0, 4)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"serve", "worker", "healthcheck", "version"})
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "app ")
	assert.Contains(t, out.String(), "commit")
}

func TestHealthcheckAgainstStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"healthcheck", "--mode", "live", "--port", portStr})
	require.NoError(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"healthcheck", "--mode", "ready", "--port", portStr})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestHealthcheckPortDefaultsFromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	t.Setenv("PORT", portStr)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"healthcheck", "--mode", "live"})
	require.NoError(t, cmd.Execute(), "healthcheck must follow the configured PORT")
}

func TestWorkerHealthHandler(t *testing.T) {
	var (
		lastIngest time.Time
		ingestedOK bool
	)
	healthMgr := health.NewManager("test")
	healthMgr.RegisterChecker(health.NewLastIngestChecker(func() (time.Time, bool) {
		return lastIngest, ingestedOK
	}, time.Hour))

	handler := newWorkerHealthHandler(healthMgr)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "liveness is always 200")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code,
		"worker is not ready before the first successful ingest pass")

	lastIngest, ingestedOK = time.Now(), true
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
