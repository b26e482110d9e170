package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {
				Host:   "http://localhost:8080",
				APIKey: "key_default",
				Output: "table",
			},
			"staging": {
				Host:   "https://staging.example.com",
				APIKey: "key_staging",
				Output: "json",
			},
		},
	}

	tests := []struct {
		name     string
		override string
		wantHost string
	}{
		{
			name:     "uses current profile",
			override: "",
			wantHost: "http://localhost:8080",
		},
		{
			name:     "override to staging",
			override: "staging",
			wantHost: "https://staging.example.com",
		},
		{
			name:     "nonexistent profile returns empty",
			override: "nonexistent",
			wantHost: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cfg.ActiveProfile(tt.override)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestLoadSaveUserConfig(t *testing.T) {
	// Override config path for testing
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := &UserConfig{
		CurrentProfile: "test",
		Profiles: map[string]Profile{
			"test": {
				Host:   "http://test:8080",
				APIKey: "key_test",
			},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", loaded.CurrentProfile)
	assert.Equal(t, "http://test:8080", loaded.Profiles["test"].Host)
	assert.Equal(t, "key_test", loaded.Profiles["test"].APIKey)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadUserConfig()
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Empty(t, maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
