package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RunCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"id":"run-1","kind":"users","succeeded":2,"failed":0,"skipped":0}`))
	defer srv.Close()

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"run", "users", "--host", srv.URL, "--api-key", "key123", "-o", "json"})
	require.NoError(t, rootCmd.Execute())

	last := rec.last()
	assert.Equal(t, "/v1/runs/users", last.Path)
	assert.Equal(t, "key123", last.Headers.Get("X-API-Key"))
}

func TestRootCmd_FailedRunExitsNonZero(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK,
		`{"id":"run-2","kind":"assets","succeeded":1,"failed":1,"skipped":0}`))
	defer srv.Close()

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"run", "assets", "--host", srv.URL})
	assert.Error(t, rootCmd.Execute())
}

func TestRootCmd_ConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://from-profile:1", APIKey: "profile-key"},
		},
	}))

	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"runs":[]}`))
	defer srv.Close()

	t.Run("env_overrides_profile", func(t *testing.T) {
		t.Setenv("QSGOV_HOST", srv.URL)
		t.Setenv("QSGOV_API_KEY", "env-key")

		rootCmd := newRootCmd()
		rootCmd.SetArgs([]string{"runs"})
		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, "env-key", rec.last().Headers.Get("X-API-Key"))
	})

	t.Run("flag_overrides_env", func(t *testing.T) {
		t.Setenv("QSGOV_HOST", "http://from-env:1")
		t.Setenv("QSGOV_API_KEY", "env-key")

		rootCmd := newRootCmd()
		rootCmd.SetArgs([]string{"runs", "--host", srv.URL, "--api-key", "flag-key"})
		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, "flag-key", rec.last().Headers.Get("X-API-Key"))
	})
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"version", "-o", "xml"})
	assert.Error(t, rootCmd.Execute())
}
